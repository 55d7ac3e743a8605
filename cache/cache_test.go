package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/havtorn/sturgeon/grammar"
	"github.com/havtorn/sturgeon/lr"
	"github.com/havtorn/sturgeon/serialize"
)

func Test_Digest_stableAndSensitiveToBothInputs(t *testing.T) {
	assert := assert.New(t)

	d1 := Digest("E -> E + id | id", "id = [a-z]+")
	d2 := Digest("E -> E + id | id", "id = [a-z]+")
	assert.Equal(d1, d2)

	d3 := Digest("E -> E + id | id", "id = [a-z0-9]+")
	assert.NotEqual(d1, d3)

	d4 := Digest("E -> id", "id = [a-z]+")
	assert.NotEqual(d1, d4)
}

func Test_Store_putGet_roundTrip(t *testing.T) {
	assert := assert.New(t)

	dbFile := filepath.Join(t.TempDir(), "artifacts.db")
	s, err := Open(dbFile)
	assert.NoError(err)
	defer s.Close()

	g := grammar.Grammar{}
	g.AddTerm("id", "identifier")
	g.AddRule("E", []string{"id"})
	g.SetStartSymbol("E")
	table, err := lr.BuildLALR1(g)
	assert.NoError(err)

	sp := serialize.SerializeParser(g, table, nil)
	sl := serialize.SerializeLexer(nil, "$", nil, "")

	digest := Digest("E -> id", "id = [a-z]+")
	ctx := context.Background()

	artifactID, err := s.Put(ctx, digest, table.Mode.String(), sl, sp)
	assert.NoError(err)
	assert.NotEmpty(artifactID)

	gotID, gotMode, gotLex, gotParser, err := s.Get(ctx, digest)
	assert.NoError(err)
	assert.Equal(artifactID, gotID)
	assert.Equal(table.Mode.String(), gotMode)
	assert.Equal(sl.EOFName, gotLex.EOFName)
	assert.Equal(sp.NumStates, gotParser.NumStates)
}

func Test_Store_put_sameDigestTwice_newArtifactID(t *testing.T) {
	assert := assert.New(t)

	dbFile := filepath.Join(t.TempDir(), "artifacts.db")
	s, err := Open(dbFile)
	assert.NoError(err)
	defer s.Close()

	g := grammar.Grammar{}
	g.AddTerm("id", "identifier")
	g.AddRule("E", []string{"id"})
	g.SetStartSymbol("E")
	table, err := lr.BuildLALR1(g)
	assert.NoError(err)

	sp := serialize.SerializeParser(g, table, nil)
	sl := serialize.SerializeLexer(nil, "$", nil, "")
	digest := Digest("E -> id", "id = [a-z]+")
	ctx := context.Background()

	firstID, err := s.Put(ctx, digest, table.Mode.String(), sl, sp)
	assert.NoError(err)
	secondID, err := s.Put(ctx, digest, table.Mode.String(), sl, sp)
	assert.NoError(err)
	assert.NotEqual(firstID, secondID)

	gotID, _, _, _, err := s.Get(ctx, digest)
	assert.NoError(err)
	assert.Equal(secondID, gotID)
}

func Test_Store_get_missingDigest(t *testing.T) {
	assert := assert.New(t)

	dbFile := filepath.Join(t.TempDir(), "artifacts.db")
	s, err := Open(dbFile)
	assert.NoError(err)
	defer s.Close()

	_, _, _, _, err = s.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(err, ErrNotFound)
}

func Test_Store_delete(t *testing.T) {
	assert := assert.New(t)

	dbFile := filepath.Join(t.TempDir(), "artifacts.db")
	s, err := Open(dbFile)
	assert.NoError(err)
	defer s.Close()

	g := grammar.Grammar{}
	g.AddTerm("id", "identifier")
	g.AddRule("E", []string{"id"})
	g.SetStartSymbol("E")
	table, err := lr.BuildLALR1(g)
	assert.NoError(err)

	sp := serialize.SerializeParser(g, table, nil)
	sl := serialize.SerializeLexer(nil, "$", nil, "")

	digest := Digest("E -> id", "id = [a-z]+")
	ctx := context.Background()
	_, err = s.Put(ctx, digest, table.Mode.String(), sl, sp)
	assert.NoError(err)
	assert.NoError(s.Delete(ctx, digest))

	_, _, _, _, err = s.Get(ctx, digest)
	assert.ErrorIs(err, ErrNotFound)
}
