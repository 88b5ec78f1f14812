package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConnect_Error(t *testing.T) {
	cfg := Config{
		Driver:             "invalid",
		ConnectionString:   "invalid",
		MaxOpenConnections: 10,
		MaxIdleConnections: 5,
		ConnMaxLifetime:    time.Hour,
	}

	db, err := Connect(cfg)
	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "sql: unknown driver")
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "postgres unique", err: &pq.Error{Code: "23505"}, want: true},
		{name: "postgres other", err: &pq.Error{Code: "23503"}, want: false},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062}, want: true},
		{name: "mysql other", err: &mysql.MySQLError{Number: 1213}, want: false},
		{name: "wrapped postgres", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), want: true},
		{name: "plain error", err: assert.AnError, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestIsUniqueViolationOf(t *testing.T) {
	pgErr := &pq.Error{Code: "23505", Constraint: "kms_configs_account_name_key"}
	assert.True(t, IsUniqueViolationOf(pgErr, "kms_configs_account_name_key"))
	assert.False(t, IsUniqueViolationOf(pgErr, "kms_configs_one_default_idx"))

	myErr := &mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry 'acc-1' for key 'kms_configs.kms_configs_one_default_idx'",
	}
	assert.True(t, IsUniqueViolationOf(myErr, "kms_configs_one_default_idx"))
	assert.False(t, IsUniqueViolationOf(myErr, "kms_configs_account_name_key"))
	assert.False(t, IsUniqueViolationOf(assert.AnError, "any"))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(&mysql.MySQLError{Number: 1451}))
	assert.False(t, IsForeignKeyViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsForeignKeyViolation(assert.AnError))
}
