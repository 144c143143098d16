package store

const schema = `
CREATE TABLE IF NOT EXISTS captures (
    id           TEXT PRIMARY KEY,
    source       TEXT NOT NULL,
    external_id  TEXT NOT NULL,
    url          TEXT NOT NULL DEFAULT '',
    author       TEXT NOT NULL DEFAULT '',
    title        TEXT NOT NULL DEFAULT '',
    main_text    TEXT NOT NULL DEFAULT '',
    score        REAL NOT NULL DEFAULT 0,
    comments     TEXT NOT NULL DEFAULT '[]',
    top_comments TEXT NOT NULL DEFAULT '[]',
    detected     BOOLEAN NOT NULL DEFAULT 0,
    notified     BOOLEAN NOT NULL DEFAULT 0,
    published_at DATETIME NOT NULL,
    captured_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_captures_source ON captures(source, external_id);
CREATE INDEX IF NOT EXISTS idx_captures_score ON captures(score);
CREATE INDEX IF NOT EXISTS idx_captures_captured_at ON captures(captured_at);
CREATE INDEX IF NOT EXISTS idx_captures_detected ON captures(detected, notified);
`
