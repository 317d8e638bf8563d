// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens throwaway databases for tests of
// x/cloudbench/storage/db and its users.
package dbtest

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"flag"
	"fmt"
	"testing"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"

	"golang.org/x/cloudbench/dataset"
	"golang.org/x/cloudbench/storage/db"
	_ "golang.org/x/cloudbench/storage/db/sqlite3"
)

var cloud = flag.Bool("cloud", false, "connect to Cloud SQL database instead of in-memory SQLite")
var cloudsql = flag.String("cloudsql", "cloudbench:us-central1:cloudbench", "name of Cloud SQL instance to run tests on")

// createEmptyCloudDB makes a new, empty database for the test and
// drops it when the test ends.
func createEmptyCloudDB(t *testing.T) (dsn string) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		t.Fatal(err)
	}
	name := "cloudbench-test-" + base64.RawURLEncoding.EncodeToString(buf)
	prefix := fmt.Sprintf("root:@cloudsql(%s)/", *cloudsql)

	conn, err := sql.Open("mysql", prefix)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Exec(fmt.Sprintf("CREATE DATABASE `%s`", name)); err != nil {
		conn.Close()
		t.Fatal(err)
	}
	t.Logf("Using database %q", name)
	t.Cleanup(func() {
		if _, err := conn.Exec(fmt.Sprintf("DROP DATABASE `%s`", name)); err != nil {
			t.Error(err)
		}
		conn.Close()
	})
	return prefix + name
}

// NewDB opens an empty testing database, either sqlite3 or Cloud SQL
// depending on the -cloud flag. The database is closed when the test
// ends.
func NewDB(t *testing.T) *db.DB {
	t.Helper()
	driverName, dataSourceName := "sqlite3", ":memory:"
	if *cloud {
		driverName = "mysql"
		dataSourceName = createEmptyCloudDB(t)
	}
	d, err := db.OpenSQL(driverName, dataSourceName)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	// Registered after the Cloud SQL cleanup, so it runs first.
	t.Cleanup(func() { d.Close() })

	// Make sure the database really is empty.
	uploads, err := d.CountUploads()
	if err != nil {
		t.Fatal(err)
	}
	if uploads != 0 {
		t.Fatalf("found %d row(s) in Uploads, want 0", uploads)
	}
	return d
}

// Save stores tab in d as a new upload, failing the test on error.
func Save(t *testing.T, d *db.DB, tab *dataset.Table) *db.Upload {
	t.Helper()
	u, err := d.SaveTable(context.Background(), tab)
	if err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	return u
}
