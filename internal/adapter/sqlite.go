package adapter

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteAdapter SQLite 适配器
type SQLiteAdapter struct {
	db *sql.DB
}

// NewSQLiteAdapter 创建 SQLite 适配器
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &SQLiteAdapter{db: db}, nil
}

// IntrospectSchema 获取元数据
func (a *SQLiteAdapter) IntrospectSchema() (*SchemaMetadata, error) {
	tables, err := a.getTables()
	if err != nil {
		return nil, err
	}

	for i := range tables {
		columns, err := a.getColumns(tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Columns = columns
	}

	return &SchemaMetadata{Tables: tables}, nil
}

func (a *SQLiteAdapter) getTables() ([]Table, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
	rows, err := a.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		t.Schema = "main"
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func (a *SQLiteAdapter) getColumns(table string) ([]Column, error) {
	// PRAGMA 不支持参数绑定，表名来自 sqlite_master
	rows, err := a.db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var cid, notNull, pk int
		var name, declType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}

		dataType, length := parseDeclaredType(declType)
		columns = append(columns, Column{
			Name:         name,
			DataType:     dataType,
			Length:       length,
			Nullable:     notNull == 0,
			IsPrimaryKey: pk > 0,
		})
	}
	return columns, nil
}

// parseDeclaredType 拆分 "VARCHAR(255)" 形式的声明类型
func parseDeclaredType(declType string) (string, int) {
	declType = strings.TrimSpace(declType)
	open := strings.Index(declType, "(")
	if open < 0 {
		return strings.ToLower(declType), 0
	}

	base := strings.ToLower(strings.TrimSpace(declType[:open]))
	end := strings.Index(declType, ")")
	if end <= open+1 {
		return base, 0
	}
	length, err := strconv.Atoi(strings.TrimSpace(declType[open+1 : end]))
	if err != nil {
		return base, 0
	}
	return base, length
}

// GetForeignKeys 获取外键约束
func (a *SQLiteAdapter) GetForeignKeys() ([]ForeignKey, error) {
	tables, err := a.getTables()
	if err != nil {
		return nil, err
	}

	var fks []ForeignKey
	for _, table := range tables {
		rows, err := a.db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%q)", table.Name))
		if err != nil {
			return nil, err
		}

		for rows.Next() {
			var id, seq int
			var refTable, fromCol string
			var toCol sql.NullString
			var onUpdate, onDelete, match string
			if err := rows.Scan(&id, &seq, &refTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
				rows.Close()
				return nil, err
			}

			fk := ForeignKey{
				FromTable:  table.Name,
				FromColumn: fromCol,
				ToTable:    refTable,
			}
			if toCol.Valid {
				fk.ToColumn = toCol.String
			} else {
				// 引用隐式主键时 to 为 NULL
				pk, err := a.getPrimaryKey(refTable)
				if err != nil {
					rows.Close()
					return nil, err
				}
				fk.ToColumn = pk
			}
			fks = append(fks, fk)
		}
		rows.Close()
	}
	return fks, nil
}

func (a *SQLiteAdapter) getPrimaryKey(table string) (string, error) {
	columns, err := a.getColumns(table)
	if err != nil {
		return "", err
	}
	for _, col := range columns {
		if col.IsPrimaryKey {
			return col.Name, nil
		}
	}
	return "rowid", nil
}

// Close 关闭连接
func (a *SQLiteAdapter) Close() error {
	return a.db.Close()
}
