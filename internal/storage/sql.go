package storage

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    start_time TIMESTAMP NOT NULL,
    vehicle    TEXT      NOT NULL,
    config     TEXT
);

CREATE TABLE IF NOT EXISTS telemetry (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id    INTEGER   NOT NULL REFERENCES sessions (id),
    timestamp     TIMESTAMP NOT NULL,
    latitude      REAL      NOT NULL,
    longitude     REAL      NOT NULL,
    abs_altitude  REAL      NOT NULL,
    rel_altitude  REAL      NOT NULL,
    vertical_rate REAL      NOT NULL
);

CREATE TABLE IF NOT EXISTS commands (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER   NOT NULL REFERENCES sessions (id),
    timestamp  TIMESTAMP NOT NULL,
    command    TEXT      NOT NULL,
    outcome    TEXT      NOT NULL,
    detail     TEXT,
    latency_ms INTEGER   NOT NULL
);`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_telemetry_session ON telemetry (session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_commands_session ON commands (session_id, timestamp);`

	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      vehicle,
                      config)
VALUES (?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    vehicle,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    vehicle,
    config
FROM sessions
ORDER BY start_time, id`

	insertTelemetrySQL = `
INSERT INTO telemetry (session_id,
                       timestamp,
                       latitude,
                       longitude,
                       abs_altitude,
                       rel_altitude,
                       vertical_rate)
VALUES `

	insertCommandSQL = `
INSERT INTO commands (session_id,
                      timestamp,
                      command,
                      outcome,
                      detail,
                      latency_ms)
VALUES (?, ?, ?, ?, ?, ?)`

	selectCommandsSQL = `
SELECT
    timestamp,
    command,
    outcome,
    detail,
    latency_ms
FROM commands
WHERE
    session_id = ?
ORDER BY id`

	selectTrackSQL = `
SELECT
    id,
    timestamp,
    latitude,
    longitude,
    abs_altitude,
    rel_altitude,
    vertical_rate
FROM telemetry
WHERE
    session_id = ?
    AND id > ?
    AND (? IS NULL OR timestamp >= ?)
    AND (? IS NULL OR timestamp <= ?)
ORDER BY id
LIMIT ?`
)
