package sheetquiz

import (
	"context"
	"fmt"
)

// OpenReader opens the table reader selected by cfg. The returned close
// function releases it and is never nil.
func OpenReader(ctx context.Context, cfg SourceConfig) (TableReader, func() error, error) {
	noop := func() error { return nil }

	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}

	switch cfg.Kind {
	case SourceSheets:
		reader, err := NewSheetsReader(ctx, cfg.SheetID, cfg.CredentialsFile)
		if err != nil {
			return nil, noop, err
		}
		return reader, noop, nil

	case SourceWorkbook:
		reader, err := OpenWorkbook(cfg.WorkbookPath)
		if err != nil {
			return nil, noop, err
		}
		return reader, reader.Close, nil

	case SourceSQLite:
		db, err := OpenDB(cfg.DBPath)
		if err != nil {
			return nil, noop, err
		}
		if err := db.CreateTables(); err != nil {
			db.Close()
			return nil, noop, err
		}
		return db, db.Close, nil

	case SourceFixture:
		reader, err := LoadFixture(cfg.FixturePath)
		if err != nil {
			return nil, noop, err
		}
		return reader, noop, nil
	}

	return nil, noop, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Kind)
}
