package database

var schema = []string{`
CREATE TABLE IF NOT EXISTS users (
    username VARCHAR(191) COLLATE utf8mb4_bin NOT NULL PRIMARY KEY,
    password VARCHAR(255) NOT NULL,
    balance BIGINT NOT NULL DEFAULT 0,
    role VARCHAR(16) NOT NULL DEFAULT 'user',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    CHECK (balance >= 0)
)`, `
CREATE TABLE IF NOT EXISTS transactions (
    seq BIGINT AUTO_INCREMENT PRIMARY KEY,
    id VARCHAR(64) NOT NULL UNIQUE,
    username VARCHAR(191) COLLATE utf8mb4_bin NOT NULL,
    type VARCHAR(16) NOT NULL,
    plan_id VARCHAR(64),
    amount BIGINT NOT NULL,
    status VARCHAR(16) NOT NULL,
    payment_method VARCHAR(16),
    account_type VARCHAR(16),
    cred_email VARCHAR(255),
    cred_password VARCHAR(255),
    cred_access_link VARCHAR(512),
    cred_expires_at VARCHAR(10),
    created_at TIMESTAMP(3) NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_transactions_owner (username, seq),
    KEY idx_transactions_queue (type, status, seq)
)`, `
CREATE TABLE IF NOT EXISTS stock_items (
    position BIGINT AUTO_INCREMENT PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    link VARCHAR(512) NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS store_settings (
    name VARCHAR(64) NOT NULL PRIMARY KEY,
    value JSON NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`,
}
