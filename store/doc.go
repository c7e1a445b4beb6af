// Package store is the relational persistence glue: the GORM user model and
// the [GormUsers] adapter behind authcore.UserStore, plus schema migration
// for the user and session tables. All real decision logic lives in the
// authcore packages; this one only moves rows.
package store
