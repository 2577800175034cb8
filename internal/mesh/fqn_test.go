package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFQN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected FQN
	}{
		{"plain", "db.sch.table", FQN{Catalog: "db", Schema: "sch", ViewName: "table"}},
		{"quoted", `"db"."sch"."table"`, FQN{Catalog: "db", Schema: "sch", ViewName: "table"}},
		{"mixed quoting", `db."sch".table`, FQN{Catalog: "db", Schema: "sch", ViewName: "table"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fqn, err := ParseFQN(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fqn)
		})
	}
}

func TestParseFQNRejectsWrongArity(t *testing.T) {
	for _, input := range []string{"table", "sch.table", "a.b.c.d", ""} {
		_, err := ParseFQN(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestFQNString(t *testing.T) {
	fqn, err := ParseFQN(`"db"."sch"."table"`)
	require.NoError(t, err)
	assert.Equal(t, "db.sch.table", fqn.String())
}

func TestModelKey(t *testing.T) {
	assert.Equal(t, "db_sch_table", ModelKey("db.sch.table"))
	assert.Equal(t, "db_sch_table", ModelKey(`"db"."sch"."table"`))
}

func TestAssetPath(t *testing.T) {
	assert.Equal(t, "db/sch/table", AssetPath("db.sch.table"))
	assert.Equal(t, "db/sch/table", AssetPath(`"db"."sch"."table"`))
}

func TestModelDepParse(t *testing.T) {
	dep := ModelDep{FQN: `"db"."sch"."upstream"`}
	fqn, err := dep.Parse()
	require.NoError(t, err)
	assert.Equal(t, "upstream", fqn.ViewName)
	assert.Nil(t, dep.Model)
}
