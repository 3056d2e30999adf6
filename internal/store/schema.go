package store

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      VARCHAR(20)  NOT NULL UNIQUE,
		email         VARCHAR(120) NOT NULL UNIQUE,
		password_hash VARCHAR(60)  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       VARCHAR(100) NOT NULL,
		date_posted DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		content     TEXT         NOT NULL,
		user_id     INTEGER      NOT NULL REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS posts_user_id_idx ON posts(user_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(20)  NOT NULL UNIQUE,
		email         VARCHAR(120) NOT NULL UNIQUE,
		password_hash VARCHAR(60)  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id          BIGSERIAL PRIMARY KEY,
		title       VARCHAR(100) NOT NULL,
		date_posted TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		content     TEXT         NOT NULL,
		user_id     BIGINT       NOT NULL REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS posts_user_id_idx ON posts(user_id)`,
}
