// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db stores normalized benchmark rows in a SQL database.
//
// Each call to the normalizer that is saved becomes one upload. An
// upload holds its rows in order, and each row holds its fields in
// column order, so a loaded upload reproduces the saved table.
package db

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"golang.org/x/cloudbench/dataset"
)

// DB is a high-level interface to a database of benchmark rows.
// It's safe for concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertUpload *sql.Stmt
	insertResult *sql.Stmt
	insertField  *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db, dataSourceName); err != nil {
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(db *sql.DB, dataSourceName string) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// The hook receives the data source name passed to OpenSQL.
// This is used by the sqlite3 package to register a ConnectHook.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(db *sql.DB, dataSourceName string) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Uploads (
	UploadID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Label VARCHAR(36) NOT NULL
);
CREATE TABLE IF NOT EXISTS Results (
	UploadID BIGINT UNSIGNED,
	RowID BIGINT UNSIGNED,
	PRIMARY KEY (UploadID, RowID),
	FOREIGN KEY (UploadID) REFERENCES Uploads(UploadID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS ResultFields (
	UploadID BIGINT UNSIGNED,
	RowID BIGINT UNSIGNED,
	Pos INT UNSIGNED,
	Name VARCHAR(255),
	Value VARCHAR(8192),
	PRIMARY KEY (UploadID, RowID, Pos),
{{if not .sqlite3}}
	Index (Name(100), Value(100)),
{{end}}
	FOREIGN KEY (UploadID, RowID) REFERENCES Results(UploadID, RowID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS ResultFieldsNameValue ON ResultFields(Name, Value);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertUpload, err = db.sql.Prepare("INSERT INTO Uploads(Label) VALUES (?)")
	if err != nil {
		return err
	}
	db.insertResult, err = db.sql.Prepare("INSERT INTO Results(UploadID, RowID) VALUES (?, ?)")
	if err != nil {
		return err
	}
	db.insertField, err = db.sql.Prepare("INSERT INTO ResultFields(UploadID, RowID, Pos, Name, Value) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// An Upload is a set of rows saved together. Its rows become visible
// when it is committed.
type Upload struct {
	// ID is the numeric key of the upload.
	ID int64

	// Label is a random UUID naming the upload.
	Label string

	// rowid is the index of the next row to insert.
	rowid int64
	db    *DB
	tx    *sql.Tx
}

// NewUpload starts a new upload. The caller must call Commit or Abort
// on the result.
func (db *DB) NewUpload(ctx context.Context) (*Upload, error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	label := uuid.New().String()
	res, err := tx.Stmt(db.insertUpload).Exec(label)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return &Upload{ID: id, Label: label, db: db, tx: tx}, nil
}

// InsertRow adds r to the upload. Absent fields are stored as NULL.
func (u *Upload) InsertRow(r *dataset.Row) error {
	if _, err := u.tx.Stmt(u.db.insertResult).Exec(u.ID, u.rowid); err != nil {
		return err
	}
	insertField := u.tx.Stmt(u.db.insertField)
	for pos, f := range r.Fields {
		var v sql.NullString
		if !f.Value.IsAbsent() {
			v = sql.NullString{String: f.Value.String(), Valid: true}
		}
		if _, err := insertField.Exec(u.ID, u.rowid, pos, f.Name, v); err != nil {
			return fmt.Errorf("row %d field %s: %w", u.rowid, f.Name, err)
		}
	}
	u.rowid++
	return nil
}

// Rows returns the number of rows inserted so far.
func (u *Upload) Rows() int64 {
	return u.rowid
}

// Commit makes the upload's rows visible.
func (u *Upload) Commit() error {
	return u.tx.Commit()
}

// Abort discards the upload.
func (u *Upload) Abort() error {
	return u.tx.Rollback()
}

// SaveTable stores every row of t in a new upload.
func (db *DB) SaveTable(ctx context.Context, t *dataset.Table) (*Upload, error) {
	u, err := db.NewUpload(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range t.Rows {
		if err := u.InsertRow(r); err != nil {
			u.Abort()
			return nil, err
		}
	}
	if err := u.Commit(); err != nil {
		return nil, err
	}
	return u, nil
}

// CountUploads returns the number of uploads in the database.
func (db *DB) CountUploads() (int, error) {
	var uploads int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Uploads").Scan(&uploads)
	return uploads, err
}

// CountRows returns the number of rows in upload id.
func (db *DB) CountRows(id int64) (int, error) {
	var rows int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Results WHERE UploadID = ?", id).Scan(&rows)
	return rows, err
}

// UploadID returns the ID of the upload with the given label.
func (db *DB) UploadID(ctx context.Context, label string) (int64, error) {
	var id int64
	err := db.sql.QueryRowContext(ctx, "SELECT UploadID FROM Uploads WHERE Label = ?", label).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("upload %q not found", label)
	}
	return id, err
}

// LoadUpload reads back the rows of upload id, in insertion order.
// Field values come back as strings.
func (db *DB) LoadUpload(ctx context.Context, id int64) (*dataset.Table, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT RowID, Name, Value FROM ResultFields WHERE UploadID = ? ORDER BY RowID, Pos", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := new(dataset.Table)
	var cur *dataset.Row
	last := int64(-1)
	for rows.Next() {
		var (
			rowid int64
			name  string
			value sql.NullString
		)
		if err := rows.Scan(&rowid, &name, &value); err != nil {
			return nil, err
		}
		if rowid != last {
			cur = new(dataset.Row)
			t.Append(cur)
			last = rowid
		}
		v := dataset.Absent
		if value.Valid {
			v = dataset.String(value.String)
		}
		cur.Set(name, v)
	}
	return t, rows.Err()
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.insertUpload, db.insertResult, db.insertField} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
