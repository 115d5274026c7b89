// Package repository implements PostgreSQL persistence for the moderation bot.
package repository

import "errors"

var (
	// ErrNotFound indicates that the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateArticle indicates that a rule with the same article already exists.
	ErrDuplicateArticle = errors.New("rule article already exists")
	// ErrReportFinalized indicates that a report already left the open state.
	ErrReportFinalized = errors.New("report already finalized")
)
