// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

// schema contains all CREATE statements for the knowledge index.
//
// entities_texts and articles_texts are FTS5 virtual tables; FTS5 tables
// cannot declare foreign keys or secondary indices, so each is joined to
// its primary table purely by rowid. The write path inserts every text
// row with an explicit rowid copied from the owning primary row, in the
// same transaction. The aliases table is the approximate-match projection
// of aliases_for_entities: alias text only, trigram-tokenized, one row
// per distinct alias text.
const schema = `
CREATE TABLE IF NOT EXISTS entities (
    id     TEXT NOT NULL PRIMARY KEY,
    claims TEXT
);

CREATE VIRTUAL TABLE IF NOT EXISTS entities_texts USING fts5(
    name,
    description,
    label,
    tokenize='porter unicode61'
);

CREATE TABLE IF NOT EXISTS articles (
    entity_id TEXT NOT NULL PRIMARY KEY REFERENCES entities(id),
    id        TEXT NOT NULL UNIQUE
);

CREATE VIRTUAL TABLE IF NOT EXISTS articles_texts USING fts5(
    title,
    content,
    tokenize='porter unicode61'
);

CREATE TABLE IF NOT EXISTS properties_in_entities (
    property_id    TEXT NOT NULL,
    from_entity_id TEXT NOT NULL REFERENCES entities(id),
    to_entity_id   TEXT NOT NULL REFERENCES entities(id),
    PRIMARY KEY (property_id, from_entity_id, to_entity_id)
);

CREATE INDEX IF NOT EXISTS idx_properties_from ON properties_in_entities(from_entity_id, property_id);
CREATE INDEX IF NOT EXISTS idx_properties_to   ON properties_in_entities(to_entity_id, property_id);

CREATE TABLE IF NOT EXISTS aliases_for_entities (
    alias     TEXT    NOT NULL,
    entity_id TEXT    NOT NULL REFERENCES entities(id),
    count     INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (alias, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_aliases_entity ON aliases_for_entities(entity_id);

CREATE VIRTUAL TABLE IF NOT EXISTS aliases USING fts5(
    word,
    tokenize='trigram'
);

CREATE TABLE IF NOT EXISTS kb_meta (
    key   TEXT NOT NULL PRIMARY KEY,
    value TEXT NOT NULL
);
`
