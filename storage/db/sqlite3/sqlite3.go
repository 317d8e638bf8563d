// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build cgo
// +build cgo

// Package sqlite3 provides the sqlite3 driver for
// x/cloudbench/storage/db. It must be imported instead of go-sqlite3
// to ensure foreign keys are properly honored.
package sqlite3

import (
	"database/sql"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"golang.org/x/cloudbench/storage/db"
)

func init() {
	db.RegisterOpenHook("sqlite3", openHook)
}

func openHook(db *sql.DB, dsn string) error {
	db.Driver().(*sqlite3.SQLiteDriver).ConnectHook = func(c *sqlite3.SQLiteConn) error {
		_, err := c.Exec("PRAGMA foreign_keys = ON;", nil)
		return err
	}
	// Each connection to an in-memory database is a separate database.
	if inMemory(dsn) {
		db.SetMaxOpenConns(1)
	}
	return nil
}

// inMemory reports whether dsn names an in-memory database.
func inMemory(dsn string) bool {
	name, query, _ := strings.Cut(dsn, "?")
	name = strings.TrimPrefix(name, "file:")
	return name == ":memory:" || name == "" || strings.Contains(query, "mode=memory")
}
