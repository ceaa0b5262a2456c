package postgres

// Advisory lock id taken around bootstrap DDL.
const schemaLockID int64 = 2026021001
