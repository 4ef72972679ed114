package query_test

import (
	"strings"
	"testing"

	"github.com/registrum/registrum/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func testProjection() *query.ProjectionMap {
	return query.
		NewProjectionMap("public", "documents", "d").
		Project("id", "ID").
		Project("status", "Status").
		Project("owner_name", "OwnerName").
		Project("priority", "Priority").
		Project("created_at", "CreatedAt")
}

func TestProjectionMap(t *testing.T) {
	p := testProjection()

	if got := p.Table(); got != "public.documents d" {
		t.Errorf("Table() = %q, want public.documents d", got)
	}
	if got := p.Alias(); got != "d" {
		t.Errorf("Alias() = %q, want d", got)
	}
	if got := p.Column("Status"); got != "d.status" {
		t.Errorf("Column(Status) = %q, want d.status", got)
	}
	if got := p.Column("Unmapped"); got != "Unmapped" {
		t.Errorf("Column(Unmapped) = %q, want passthrough", got)
	}
	if got := p.Columns(); got != "d.id, d.status, d.owner_name, d.priority, d.created_at" {
		t.Errorf("Columns() = %q", got)
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"single ascending", "created_at", []query.SortField{{Field: "created_at"}}},
		{"single descending", "-priority", []query.SortField{{Field: "priority", Descending: true}}},
		{
			"mixed with whitespace",
			" -priority , created_at ",
			[]query.SortField{
				{Field: "priority", Descending: true},
				{Field: "created_at"},
			},
		},
		{"blank segments skipped", "status,,", []query.SortField{{Field: "status"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("field[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderBuild(t *testing.T) {
	t.Run("no conditions", func(t *testing.T) {
		sql, args := query.NewBuilder(testProjection()).Build()

		want := "SELECT d.id, d.status, d.owner_name, d.priority, d.created_at FROM public.documents d"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("default sort applied", func(t *testing.T) {
		b := query.NewBuilder(
			testProjection(),
			query.SortField{Field: "Priority", Descending: true},
			query.SortField{Field: "CreatedAt"},
		)
		sql, _ := b.Build()

		if !strings.HasSuffix(sql, "ORDER BY d.priority DESC, d.created_at ASC") {
			t.Errorf("sql = %q, want queue ordering suffix", sql)
		}
	})

	t.Run("explicit sort overrides default", func(t *testing.T) {
		b := query.NewBuilder(testProjection(), query.SortField{Field: "CreatedAt"})
		b.OrderByFields([]query.SortField{{Field: "OwnerName", Descending: true}})
		sql, _ := b.Build()

		if !strings.HasSuffix(sql, "ORDER BY d.owner_name DESC") {
			t.Errorf("sql = %q, want owner_name DESC ordering", sql)
		}
	})

	t.Run("conditions number parameters sequentially", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereEquals("Status", ptr("in_review")).
			WhereContains("OwnerName", ptr("Kanza"))
		sql, args := b.Build()

		if !strings.Contains(sql, "d.status = $1") {
			t.Errorf("sql = %q, want d.status = $1", sql)
		}
		if !strings.Contains(sql, "d.owner_name ILIKE $2") {
			t.Errorf("sql = %q, want d.owner_name ILIKE $2", sql)
		}
		if len(args) != 2 {
			t.Fatalf("args = %d, want 2", len(args))
		}
		if args[1] != "%Kanza%" {
			t.Errorf("args[1] = %v, want %%Kanza%%", args[1])
		}
	})

	t.Run("nil filter values are no-ops", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereEquals("Status", (*string)(nil)).
			WhereContains("OwnerName", nil)
		sql, args := b.Build()

		if strings.Contains(sql, "WHERE") {
			t.Errorf("sql = %q, want no WHERE clause", sql)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})
}

func TestBuilderBuildCount(t *testing.T) {
	b := query.NewBuilder(testProjection()).WhereEquals("Status", ptr("pending_review"))
	sql, args := b.BuildCount()

	want := "SELECT COUNT(*) FROM public.documents d WHERE d.status = $1"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %d, want 1", len(args))
	}
}

func TestBuilderBuildPage(t *testing.T) {
	b := query.NewBuilder(testProjection(), query.SortField{Field: "CreatedAt"})
	sql, _ := b.BuildPage(3, 25)

	if !strings.HasSuffix(sql, "LIMIT 25 OFFSET 50") {
		t.Errorf("sql = %q, want LIMIT 25 OFFSET 50", sql)
	}
}

func TestBuilderBuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).BuildSingle("ID", "abc-123")

	if !strings.Contains(sql, "WHERE d.id = $1") {
		t.Errorf("sql = %q, want WHERE d.id = $1", sql)
	}
	if len(args) != 1 || args[0] != "abc-123" {
		t.Errorf("args = %v, want [abc-123]", args)
	}
}

func TestBuilderWhereSearch(t *testing.T) {
	t.Run("or across fields", func(t *testing.T) {
		b := query.NewBuilder(testProjection()).
			WhereSearch(ptr("bulletin"), "OwnerName", "Status")
		sql, args := b.Build()

		if !strings.Contains(sql, "(d.owner_name ILIKE $1 OR d.status ILIKE $2)") {
			t.Errorf("sql = %q, want grouped OR clause", sql)
		}
		if len(args) != 2 || args[0] != "%bulletin%" {
			t.Errorf("args = %v, want doubled search pattern", args)
		}
	})

	t.Run("nil search is a no-op", func(t *testing.T) {
		sql, _ := query.NewBuilder(testProjection()).WhereSearch(nil, "OwnerName").Build()
		if strings.Contains(sql, "WHERE") {
			t.Errorf("sql = %q, want no WHERE clause", sql)
		}
	})
}

func TestBuilderWhereIn(t *testing.T) {
	b := query.NewBuilder(testProjection()).
		WhereIn("Status", []any{"pending_review", "ai_completed"})
	sql, args := b.Build()

	if !strings.Contains(sql, "d.status IN ($1, $2)") {
		t.Errorf("sql = %q, want IN clause", sql)
	}
	if len(args) != 2 {
		t.Errorf("args = %d, want 2", len(args))
	}
}

func TestBuilderWhereNullable(t *testing.T) {
	t.Run("nil produces IS NULL", func(t *testing.T) {
		sql, args := query.NewBuilder(testProjection()).
			WhereNullable("OwnerName", nil).
			Build()

		if !strings.Contains(sql, "d.owner_name IS NULL") {
			t.Errorf("sql = %q, want IS NULL clause", sql)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("value produces equality", func(t *testing.T) {
		sql, args := query.NewBuilder(testProjection()).
			WhereNullable("OwnerName", "Mme. Kanza").
			Build()

		if !strings.Contains(sql, "d.owner_name = $1") {
			t.Errorf("sql = %q, want equality clause", sql)
		}
		if len(args) != 1 {
			t.Errorf("args = %d, want 1", len(args))
		}
	})
}
