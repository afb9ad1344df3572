package models

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/yyvfuruta/employees/internal/validator"
)

func sampleEmployee(name string) *Employee {
	return &Employee{
		ID:       uuid.New(),
		Name:     name,
		Position: "Engineer",
		Salary:   4200,
		HireDate: NewDate(2021, 3, 15),
	}
}

func TestValidateEmployee(t *testing.T) {
	tests := []struct {
		name     string
		employee Employee
		invalid  []string
	}{
		{
			name:     "valid",
			employee: *sampleEmployee("Ada"),
		},
		{
			name:     "empty",
			employee: Employee{},
			invalid:  []string{"name", "position", "salary", "hireDate"},
		},
		{
			name: "negative salary",
			employee: Employee{
				Name:     "Ada",
				Position: "Engineer",
				Salary:   -1,
				HireDate: NewDate(2020, 1, 1),
			},
			invalid: []string{"salary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validator.New()
			ValidateEmployee(v, &tt.employee)

			if len(v.Errors) != len(tt.invalid) {
				t.Fatalf("got errors %v, want keys %v", v.Errors, tt.invalid)
			}
			for _, key := range tt.invalid {
				if _, ok := v.Errors[key]; !ok {
					t.Errorf("missing error for %q", key)
				}
			}
		})
	}
}

// exerciseStore runs the shared store contract against any implementation.
func exerciseStore(t *testing.T, store EmployeeStore) {
	t.Helper()
	ctx := context.Background()

	bob := sampleEmployee("Bob")
	ada := sampleEmployee("Ada")

	if _, err := store.Get(ctx, bob.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Get on empty store: want ErrRecordNotFound, got %v", err)
	}

	for _, e := range []*Employee{bob, ada} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.Get(ctx, ada.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got != *ada {
		t.Fatalf("Get = %+v, want %+v", got, ada)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Ada" || list[1].Name != "Bob" {
		t.Fatalf("List = %+v", list)
	}

	bob.Position = "Manager"
	if err := store.Save(ctx, bob); err != nil {
		t.Fatalf("Save (update): %v", err)
	}
	got, err = store.Get(ctx, bob.ID)
	if err != nil || got.Position != "Manager" {
		t.Fatalf("Get after update = %+v, %v", got, err)
	}

	ok, err := store.Exists(ctx, bob.ID)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	if err := store.Delete(ctx, bob.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, bob.ID); err != nil {
		t.Fatalf("Delete of missing id should not fail: %v", err)
	}

	ok, err = store.Exists(ctx, bob.ID)
	if err != nil || ok {
		t.Fatalf("Exists after delete = %v, %v", ok, err)
	}
}

func TestMemoryEmployeeModel(t *testing.T) {
	exerciseStore(t, NewMemoryEmployeeModel())
}

func TestMemoryEmployeeModel_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryEmployeeModel()
	if err := store.Save(ctx, sampleEmployee("Ada")); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestEmployeeModel_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TEMPORARY TABLE employees (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		position TEXT NOT NULL,
		salary DOUBLE PRECISION NOT NULL,
		hire_date DATE NOT NULL
	)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	// Temporary tables are per connection.
	db.SetMaxOpenConns(1)

	exerciseStore(t, EmployeeModel{DB: db})
}
