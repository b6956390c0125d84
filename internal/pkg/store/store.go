package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// This type of hook separates from the regular PostSave hook since it has side effects
type AfterSaveCommitHook func()

// Hooks for database operations
type Hooks[T any] struct {
	PreSave    []func(ctx context.Context, tx *Tx, data DTO, isNew bool) error
	PostSave   []func(ctx context.Context, tx *Tx, data DTO, model *T, isNew bool) error
	PreDelete  []func(ctx context.Context, tx *Tx, id int64) error
	PostDelete []func(ctx context.Context, tx *Tx, id int64) error
	// AfterSaveCommit hooks run once the surrounding transaction commits.
	// A nil return means there is nothing to run.
	AfterSaveCommit []func(ctx context.Context, data DTO, model *T, isNew bool) AfterSaveCommitHook
}

// DTO is the write shape of a row. Exported fields tagged `db` become
// columns; nil pointers and empty strings are skipped on update.
type DTO interface {
	Validate() error
}

type Datastorer[T any] interface {
	Create(ctx context.Context, data DTO) (*T, error)
	CreateTx(ctx context.Context, tx *Tx, data DTO) (*T, error)
	Update(ctx context.Context, id int64, data DTO) (*T, error)
	UpdateTx(ctx context.Context, tx *Tx, id int64, data DTO) (*T, error)
	Delete(ctx context.Context, id int64) error
	DeleteTx(ctx context.Context, tx *Tx, id int64) error

	GetByID(ctx context.Context, id int64) (*T, error)
	QueryRow(ctx context.Context, query string, args ...any) (any, error)
	Get(ctx context.Context, query string, args ...any) (*T, error)
	GetTx(ctx context.Context, tx *Tx, query string, args ...any) (*T, error)
	Select(ctx context.Context, query string, args ...any) ([]T, error)
	SelectTx(ctx context.Context, tx *Tx, query string, args ...any) ([]T, error)

	// WARN: DeleteWhere does not yet support hooks execution.
	DeleteWhere(ctx context.Context, column string, value any) error

	// WARN: BulkUpdate does not run hooks.
	BulkUpdate(ctx context.Context, query string, args ...any) error
	// Set hooks.
	SetHooks(hooks Hooks[T])

	// Columns is the comma separated select list of T.
	Columns() string
	Table() string

	// useful for complex operations wherein store interface does not supported.
	Base() *DB
}

func getStructFieldNamesFromInstance(instance any) []string {
	typ := reflect.TypeOf(instance)
	if typ.Kind() == reflect.Ptr { // Handle pointer types
		typ = typ.Elem()
	}

	var fields []string

	for i := range typ.NumField() {
		field := typ.Field(i)
		dbTag := field.Tag.Get("db")

		if dbTag != "" && dbTag != "-" {
			fields = append(fields, dbTag)
		}
	}

	return fields
}

// getStructFieldsFromDTO extracts field names and placeholders from a DTO struct
func getStructFieldsFromDTO(dto DTO) (columns string, placeholders string) {
	// Get the reflection type of the struct
	t := reflect.TypeOf(dto)
	if t.Kind() == reflect.Ptr {
		t = t.Elem() // Dereference pointer
	}

	var columnNames []string
	var placeholderNames []string

	// Iterate over struct fields
	for i := range t.NumField() {
		field := t.Field(i)

		// Get the `db` tag
		dbTag := field.Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue // Skip fields without a `db` tag or explicitly ignored fields
		}

		columnNames = append(columnNames, dbTag)
		placeholderNames = append(placeholderNames, ":"+dbTag) // Named placeholders
	}

	return strings.Join(columnNames, ", "), strings.Join(placeholderNames, ", ")
}

func getNonEmptyFieldsFromDTO(dto DTO, params map[string]any) string {
	v := reflect.ValueOf(dto)
	t := reflect.TypeOf(dto)

	if v.Kind() == reflect.Ptr {
		v = v.Elem()
		t = t.Elem()
	}

	var fields []string

	for i := range v.NumField() {
		field := t.Field(i)
		value := v.Field(i)

		// Check if the field should be skipped entirely
		if field.Tag.Get("db") == "-" {
			continue
		}

		// Convert field names to SQL column names (assumes struct tag `db:"column_name"`)
		columnName := field.Tag.Get("db")
		if columnName == "" {
			columnName = strings.ToLower(field.Name)
		}

		// Skip empty fields
		if value.Kind() == reflect.Ptr && value.IsNil() || value.Kind() == reflect.String && value.String() == "" {
			continue
		}

		fields = append(fields, fmt.Sprintf("%s = :%s", columnName, columnName))

		if value.Kind() == reflect.Ptr {
			params[columnName] = value.Elem().Interface()
		} else {
			params[columnName] = value.Interface()
		}
	}

	return strings.Join(fields, ", ")
}
