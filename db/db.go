// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package db connects to the Postgres database backing workbook stores, and
// manages its schema.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	runner "github.com/homelight/dat/sqlx-runner"
	_ "github.com/lib/pq"
	log "github.com/mgutz/logxi/v1"
)

var logger = log.New("gridcalc/db")

// Tables lists the tables of the schema, dependents first.
var Tables = []string{
	"workbook_cells",
	"workbook_names",
	"workbook_sheets",
	"workbooks",
}

var schema = []string{
	`create table if not exists workbooks (
		id       varchar(36) primary key,
		version  int not null,
		name     text not null,
		date1904 boolean not null
	)`,
	`create table if not exists workbook_sheets (
		workbook_id varchar(36) not null references workbooks(id),
		idx         int not null,
		name        text not null,
		primary key (workbook_id, idx)
	)`,
	`create table if not exists workbook_names (
		workbook_id varchar(36) not null references workbooks(id),
		name        text not null,
		definition  text not null,
		primary key (workbook_id, name)
	)`,
	`create table if not exists workbook_cells (
		id           serial primary key,
		workbook_id  varchar(36) not null references workbooks(id),
		sheet        int not null,
		row          int not null,
		col          int not null,
		from_version int not null,
		to_version   int not null,
		value        text
	)`,
	`create index if not exists workbook_cells_by_version
		on workbook_cells (workbook_id, from_version, to_version)`,
}

// Open connects to the database at url, e.g.
// `postgres://gridcalc@localhost/gridcalc?sslmode=disable`.
func Open(url string) (*runner.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	logger.Debug("connected", "url", redact(url))
	return runner.NewDB(db, "postgres"), nil
}

// EnsureSchema creates the tables which do not exist yet.
func EnsureSchema(db *runner.DB) error {
	return RunTransaction(db, func(tx *runner.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("unable to create schema: %w", err)
			}
		}
		return nil
	})
}

// Truncate empties every table.
func Truncate(db *runner.DB) error {
	if _, err := db.Exec(fmt.Sprintf("truncate %s", strings.Join(Tables, ", "))); err != nil {
		return fmt.Errorf("unable to truncate: %w", err)
	}
	return nil
}

// RunTransaction runs fn within a transaction, which is committed if fn
// succeeds and rolled back otherwise.
func RunTransaction(db *runner.DB, fn func(tx *runner.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.AutoRollback()

	if err := fn(tx); err != nil {
		logger.Debug("rolled back", "err", err)
		return err
	}

	return tx.Commit()
}

// redact hides the password of a connection url.
func redact(url string) string {
	scheme := strings.Index(url, "://")
	at := strings.LastIndex(url, "@")
	if scheme < 0 || at < scheme {
		return url
	}
	userinfo := url[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return url[:scheme+3] + userinfo[:colon] + ":***" + url[at:]
	}
	return url
}
