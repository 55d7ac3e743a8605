// Package cache implements a content-addressed store of compiled
// SerializedLexer/SerializedParser artifacts, keyed by a digest of the
// grammar and lexer-rule source text that produced them. Table construction
// is the expensive part of the system; a long-lived generator process can
// skip rebuilding a grammar it has already compiled.
//
// Backed by the pure-Go modernc.org/sqlite driver (sql.Open("sqlite",
// file)) and github.com/dekarrin/rezi for on-disk binary encoding. The
// digest itself uses golang.org/x/crypto/blake2b rather than a hand-rolled
// hash.
package cache

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"modernc.org/sqlite"

	"github.com/havtorn/sturgeon/serialize"
)

// ErrNotFound is returned by Get when no artifact has been cached for a
// digest yet.
var ErrNotFound = errors.New("cache: artifact not found")

// Digest derives the content-address key for a (grammar source, lexer rule
// source) pair. A grammar author editing either file independently must
// invalidate the cached tables, so both feed the same digest.
func Digest(grammarSrc, lexerSrc string) string {
	h, _ := blake2b.New256(nil) // nil key is always accepted by blake2b.New256
	h.Write([]byte(grammarSrc))
	h.Write([]byte{0})
	h.Write([]byte(lexerSrc))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Store is a sqlite-backed cache of compiled artifacts.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the cache database at file.
func Open(file string) (*Store, error) {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapDBError(err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS compiled_artifacts (
		digest TEXT NOT NULL PRIMARY KEY,
		artifact_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		lexer BLOB NOT NULL,
		parser BLOB NOT NULL,
		created INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Put stores the binary-encoded lexer and parser artifacts under digest,
// replacing any entry already there: a grammar author recompiling after an
// edit expects the newest build to win, not to be silently ignored. It
// returns a fresh artifact id identifying this particular build, for a
// caller (cmd/sturgeongrep, package inspect) that wants to log or report
// which compiled version it is running without exposing the digest itself.
func (s *Store) Put(ctx context.Context, digest, mode string, lex *serialize.SerializedLexer, parser *serialize.SerializedParser) (artifactID string, err error) {
	lexBytes, err := serialize.EncodeLexerBinary(lex)
	if err != nil {
		return "", fmt.Errorf("cache: encoding lexer: %w", err)
	}
	parserBytes := serialize.EncodeParserBinary(parser)

	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("cache: generating artifact id: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO compiled_artifacts (digest, artifact_id, mode, lexer, parser, created)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET artifact_id=excluded.artifact_id, mode=excluded.mode, lexer=excluded.lexer, parser=excluded.parser, created=excluded.created`,
		digest, id.String(), mode, lexBytes, parserBytes, time.Now().Unix())
	if err != nil {
		return "", wrapDBError(err)
	}
	return id.String(), nil
}

// Get retrieves and decodes the artifacts stored under digest, returning
// ErrNotFound if nothing has been cached for it yet.
func (s *Store) Get(ctx context.Context, digest string) (artifactID, mode string, lex *serialize.SerializedLexer, parser *serialize.SerializedParser, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT artifact_id, mode, lexer, parser FROM compiled_artifacts WHERE digest = ?`, digest)

	var lexBytes, parserBytes []byte
	if err := row.Scan(&artifactID, &mode, &lexBytes, &parserBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", nil, nil, ErrNotFound
		}
		return "", "", nil, nil, wrapDBError(err)
	}

	lex, err = serialize.DecodeLexerBinary(lexBytes)
	if err != nil {
		return "", "", nil, nil, err
	}
	parser, err = serialize.DecodeParserBinary(parserBytes)
	if err != nil {
		return "", "", nil, nil, err
	}
	return artifactID, mode, lex, parser, nil
}

// Delete removes any cached artifact for digest. Deleting a digest that was
// never stored is not an error.
func (s *Store) Delete(ctx context.Context, digest string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM compiled_artifacts WHERE digest = ?`, digest)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		return fmt.Errorf("cache: sqlite error %d: %w", sqliteErr.Code(), err)
	}
	return fmt.Errorf("cache: %w", err)
}
