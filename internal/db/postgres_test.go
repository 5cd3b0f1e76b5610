package db

import "testing"

func TestMigrateURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"postgres scheme",
			"postgres://user:pw@localhost:5432/notifications?sslmode=disable",
			"pgx5://user:pw@localhost:5432/notifications?sslmode=disable",
		},
		{
			"postgresql scheme",
			"postgresql://user:pw@localhost:5432/notifications",
			"pgx5://user:pw@localhost:5432/notifications",
		},
		{
			"bare host",
			"localhost:5432/notifications",
			"pgx5://localhost:5432/notifications",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := migrateURL(tc.in); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
