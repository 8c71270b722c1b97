package credential

import (
	"context"
	"database/sql"

	goSignup "github.com/MrEthical07/goSignup"
	"github.com/MrEthical07/goSignup/credential/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

const uniqueViolation = "23505"

// PostgresStore keeps credentials in the credentials table.
type PostgresStore struct {
	db *sql.DB
}

var _ goSignup.CredentialStore = (*PostgresStore)(nil)

// NewPostgresStore wraps an open pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to dsn with the pgx driver and checks the connection.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return NewPostgresStore(db), nil
}

// Migrate applies the embedded schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM credentials WHERE email = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check credential")
	}
	return exists, nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*goSignup.Credential, error) {
	query :=
		`SELECT id, email, password_hash, name, role, created_at FROM credentials
		 WHERE email = $1`

	return s.getOne(ctx, query, email)
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*goSignup.Credential, error) {
	query :=
		`SELECT id, email, password_hash, name, role, created_at FROM credentials
		 WHERE id = $1`

	return s.getOne(ctx, query, id)
}

func (s *PostgresStore) getOne(ctx context.Context, query string, arg string) (*goSignup.Credential, error) {
	var (
		c    goSignup.Credential
		role string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Name, &role, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goSignup.ErrCredentialNotFound
		}
		return nil, errors.Wrap(err, "load credential")
	}
	c.Role = goSignup.Role(role)
	return &c, nil
}

// Create inserts c. A concurrent insert of the same email is reported as
// goSignup.ErrDuplicateEmail.
func (s *PostgresStore) Create(ctx context.Context, c goSignup.Credential) error {
	query :=
		`INSERT INTO credentials (id, email, password_hash, name, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query, c.ID, c.Email, c.PasswordHash, c.Name, string(c.Role), c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return goSignup.ErrDuplicateEmail
		}
		return errors.Wrap(err, "insert credential")
	}
	return nil
}

// Ping checks the connection pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.PingContext(ctx), "ping postgres")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
