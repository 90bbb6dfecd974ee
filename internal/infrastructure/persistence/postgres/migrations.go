// Package postgres implements the PostgreSQL persistence layer for the
// Mariners Gameday Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE GAMES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create games table
-- Version: 001

CREATE TABLE IF NOT EXISTS games (
    game_pk INTEGER PRIMARY KEY,
    game_date TIMESTAMP WITH TIME ZONE NOT NULL,
    home_team_id INTEGER NOT NULL,
    home_team_name VARCHAR(100) NOT NULL,
    away_team_id INTEGER NOT NULL,
    away_team_name VARCHAR(100) NOT NULL,
    venue VARCHAR(100) NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
    game_type VARCHAR(2) NOT NULL DEFAULT 'R',
    season INTEGER NOT NULL,
    home_probable VARCHAR(100) NOT NULL DEFAULT '',
    away_probable VARCHAR(100) NOT NULL DEFAULT '',
    notification_sent BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_game_status CHECK (status IN ('scheduled', 'live', 'final', 'postponed', 'cancelled')),
    CONSTRAINT valid_game_pk CHECK (game_pk > 0)
);

-- Indexes for schedule queries
CREATE INDEX IF NOT EXISTS idx_games_game_date ON games(game_date);
CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
CREATE INDEX IF NOT EXISTS idx_games_season ON games(season);
CREATE INDEX IF NOT EXISTS idx_games_upcoming ON games(game_date) WHERE status = 'scheduled';
`

const migration001Down = `
DROP TABLE IF EXISTS games;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE TRANSACTIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create transactions table
-- Version: 002

CREATE TABLE IF NOT EXISTS transactions (
    id BIGINT PRIMARY KEY,
    person_id BIGINT NOT NULL DEFAULT 0,
    person_name VARCHAR(100) NOT NULL,
    from_team_id INTEGER NOT NULL DEFAULT 0,
    from_team_name VARCHAR(100) NOT NULL DEFAULT '',
    to_team_id INTEGER NOT NULL DEFAULT 0,
    to_team_name VARCHAR(100) NOT NULL DEFAULT '',
    transaction_date TIMESTAMP WITH TIME ZONE NOT NULL,
    effective_date TIMESTAMP WITH TIME ZONE,
    resolution_date TIMESTAMP WITH TIME ZONE,
    type_code VARCHAR(10) NOT NULL,
    type_desc VARCHAR(100) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    notified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_transaction_id CHECK (id > 0)
);

-- Indexes for the notification pipeline
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(transaction_date DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_unnotified ON transactions(transaction_date) WHERE notified = FALSE;
CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type_code);
`

const migration002Down = `
DROP TABLE IF EXISTS transactions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE SUBSCRIBERS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create subscribers and preferences tables
-- Version: 003

CREATE TABLE IF NOT EXISTS subscribers (
    chat_id BIGINT PRIMARY KEY,
    username VARCHAR(100) NOT NULL DEFAULT '',
    first_name VARCHAR(100) NOT NULL DEFAULT '',
    last_name VARCHAR(100) NOT NULL DEFAULT '',
    subscribed BOOLEAN NOT NULL DEFAULT TRUE,
    timezone VARCHAR(50) NOT NULL DEFAULT 'America/Los_Angeles',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_seen_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_chat_id CHECK (chat_id != 0)
);

CREATE INDEX IF NOT EXISTS idx_subscribers_subscribed ON subscribers(chat_id) WHERE subscribed = TRUE;

CREATE TABLE IF NOT EXISTS subscriber_preferences (
    chat_id BIGINT PRIMARY KEY REFERENCES subscribers(chat_id) ON DELETE CASCADE,
    trades BOOLEAN NOT NULL DEFAULT TRUE,
    signings BOOLEAN NOT NULL DEFAULT TRUE,
    recalls BOOLEAN NOT NULL DEFAULT TRUE,
    options BOOLEAN NOT NULL DEFAULT TRUE,
    injuries BOOLEAN NOT NULL DEFAULT TRUE,
    activations BOOLEAN NOT NULL DEFAULT TRUE,
    releases BOOLEAN NOT NULL DEFAULT FALSE,
    status_changes BOOLEAN NOT NULL DEFAULT FALSE,
    other BOOLEAN NOT NULL DEFAULT FALSE,
    major_league_only BOOLEAN NOT NULL DEFAULT TRUE
);
`

const migration003Down = `
DROP TABLE IF EXISTS subscriber_preferences;
DROP TABLE IF EXISTS subscribers;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE NOTIFICATION EVENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create notification_events table
-- Version: 004

CREATE TABLE IF NOT EXISTS notification_events (
    id VARCHAR(64) PRIMARY KEY,
    kind VARCHAR(30) NOT NULL,
    chat_id BIGINT NOT NULL DEFAULT 0,
    game_pk INTEGER NOT NULL DEFAULT 0,
    transaction_id BIGINT NOT NULL DEFAULT 0,
    scheduled_at TIMESTAMP WITH TIME ZONE,
    message TEXT NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    attempts INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    sent_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_event_kind CHECK (kind IN ('game_reminder', 'transaction_alert')),
    CONSTRAINT valid_event_status CHECK (status IN ('pending', 'batched', 'sent', 'failed', 'cancelled'))
);

-- Indexes for the delivery scheduler
CREATE INDEX IF NOT EXISTS idx_events_due ON notification_events(scheduled_at) WHERE status = 'pending' AND kind = 'game_reminder';
CREATE INDEX IF NOT EXISTS idx_events_status ON notification_events(status, created_at);
CREATE INDEX IF NOT EXISTS idx_events_game_pk ON notification_events(game_pk) WHERE game_pk > 0;
`

const migration004Down = `
DROP TABLE IF EXISTS notification_events;
`
