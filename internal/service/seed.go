package service

import "github.com/digkill/PresetStore/internal/models"

const stockLinkBase = "https://generator.email/"

var seedStockEmails = [...]string{
	"chynadoll714@dmxs8.com",
	"hrustunk@imaanpharmacy.com",
	"zalkinata082@doremifasoleando.es",
	"thathaalmeida10@chatgpt-ar.com",
	"residentevil2011199@mlgmail.top",
	"zonghen1@boranora.com",
	"viktoriaelt@wotomail.com",
	"tourmax@edgepodlab.com",
	"zakikhan120@luxsev.com",
	"ivan758366@newgoldkey.com",
	"afra2011@effortlessinneke.io",
	"ebskrx@hotmail-us.top",
	"squirttest@strongnutricion.es",
	"privitalik@via17.com",
	"veronikaanisimova@chupanhcuoidep.com",
	"djrusselll@available-home.com",
	"wrightstuff2@chatgpt-ar.com",
	"daniillysenko@ketua.id",
	"megx13@boranora.com",
	"silovik12@gmaiil.top",
	"bwg38038622@besnetor.com",
	"luddmilka@happiseektest.com",
	"ohterp@ahrixthinh.net",
	"brianwinton@clonemailgiare.com",
	"dmplpl@googl.win",
	"whiteguard@btcmod.com",
	"khavaldzy@ppcc.lol",
	"snouie@lucktoc.com",
	"sjh2035@otpku.com",
	"milkshakealex@secretreview.net",
}

// SeedStock returns a fresh copy of the fixed seed pool restored by a stock reset.
func SeedStock() []models.StockItem {
	items := make([]models.StockItem, 0, len(seedStockEmails))
	for _, email := range seedStockEmails {
		items = append(items, models.StockItem{Email: email, Link: stockLinkBase + email})
	}
	return items
}

// DefaultPlans is the catalog installed on first start.
func DefaultPlans() []models.Plan {
	return []models.Plan{
		{
			ID:       "monthly",
			Name:     "Paket Bulanan",
			Duration: "Bulan",
			Features: []string{"No Watermark", "All Effects Unlocked", "Export 4K", "XML Support"},
			Base:     models.PriceOffer{Enabled: true, Amount: 10000},
			Offers: map[models.AccountType]*models.PriceOffer{
				models.AccountSharing: {Enabled: true, Amount: 5000, StrikeThrough: amountPtr(10000)},
				models.AccountPrivate: {Enabled: true, Amount: 15000, StrikeThrough: amountPtr(20000)},
			},
		},
		{
			ID:          "yearly",
			Name:        "Paket Tahunan",
			Duration:    "Tahun",
			Features:    []string{"Hemat 70%", "No Watermark", "Priority Support", "Cloud Storage 50GB", "XML Support"},
			Recommended: true,
			Base:        models.PriceOffer{Enabled: true, Amount: 25000},
			Offers: map[models.AccountType]*models.PriceOffer{
				models.AccountSharing: {Enabled: true, Amount: 20000, StrikeThrough: amountPtr(50000)},
				models.AccountPrivate: {Enabled: true, Amount: 50000, StrikeThrough: amountPtr(120000)},
			},
		},
	}
}

func DefaultAnnouncement() models.Announcement {
	return models.Announcement{
		Text:     "INFO TERBARU: Metode Pembayaran E-Wallet (DANA/GOPAY/QRIS) Kini Tersedia! Stok Terbatas, Amankan Akunmu Sekarang.",
		IsActive: true,
	}
}

func amountPtr(v int64) *int64 {
	return &v
}
