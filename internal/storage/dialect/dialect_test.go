package dialect

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		dialectType DialectType
		wantName    string
		wantErr     bool
	}{
		{"sqlite", SQLite, "sqlite", false},
		{"postgres", Postgres, "postgres", false},
		{"mysql", DialectType("mysql"), "", true},
		{"unknown", DialectType("unknown"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.dialectType)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && d.Name() != tt.wantName {
				t.Errorf("Name() = %v, want %v", d.Name(), tt.wantName)
			}
		})
	}
}

func TestFromDriverName(t *testing.T) {
	tests := []struct {
		driverName string
		wantName   string
		wantDriver string
		wantErr    bool
	}{
		{"sqlite", "sqlite", "sqlite", false},
		{"sqlite3", "sqlite", "sqlite", false},
		{"SQLite", "sqlite", "sqlite", false},
		{"postgres", "postgres", "postgres", false},
		{"postgresql", "postgres", "postgres", false},
		{"pq", "postgres", "postgres", false},
		{"unknown", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.driverName, func(t *testing.T) {
			d, err := FromDriverName(tt.driverName)
			if (err != nil) != tt.wantErr {
				t.Errorf("FromDriverName() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				return
			}
			if d.Name() != tt.wantName {
				t.Errorf("Name() = %v, want %v", d.Name(), tt.wantName)
			}
			if d.DriverName() != tt.wantDriver {
				t.Errorf("DriverName() = %v, want %v", d.DriverName(), tt.wantDriver)
			}
		})
	}
}

func TestSQLiteDialect_Rebind(t *testing.T) {
	d := &sqliteDialect{}
	query := "SELECT record FROM event_records WHERE seq > ? LIMIT ?"
	got := d.Rebind(query)
	if got != query {
		t.Errorf("Rebind() = %v, want %v", got, query)
	}
}

func TestPostgresDialect_Rebind(t *testing.T) {
	d := &postgresDialect{}
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT * FROM event_records WHERE event_id = ?", "SELECT * FROM event_records WHERE event_id = $1"},
		{"INSERT INTO event_records VALUES (?, ?, ?)", "INSERT INTO event_records VALUES ($1, $2, $3)"},
		{"SELECT * FROM event_records", "SELECT * FROM event_records"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := d.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPragmaStatements(t *testing.T) {
	if len((&sqliteDialect{}).PragmaStatements()) == 0 {
		t.Error("sqlite dialect should configure pragmas")
	}
	if (&postgresDialect{}).PragmaStatements() != nil {
		t.Error("postgres dialect should not configure pragmas")
	}
}
