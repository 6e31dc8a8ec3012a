package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/flore/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already recorded")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrdersBySession(ctx context.Context, sessionID string) ([]*Order, error)
	Close() error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	logger.Logger.Info().Str("host", cred.Host).Str("database", cred.DBName).Msg("Connected to postgres")
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	customerJSON, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("failed to marshal customer: %w", err)
	}

	query := `INSERT INTO orders (id, session_id, customer_name, customer_phone, customer, total_amount,
	                              currency, status, items, message, whatsapp_url, placed_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.ID,
		order.SessionID,
		order.Customer.CustomerName,
		order.Customer.CustomerPhone,
		customerJSON,
		order.Total,
		order.Currency,
		order.Status,
		itemsJSON,
		order.Message,
		order.WhatsAppURL,
		order.PlacedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

const orderColumns = `id, session_id, customer, total_amount, currency, status, items, message, whatsapp_url,
	          placed_at, created_at, updated_at`

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *PostgresRepository) ListOrdersBySession(ctx context.Context, sessionID string) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE session_id = $1 ORDER BY placed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query orders by session id: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		order        Order
		customerJSON []byte
		itemsJSON    []byte
	)
	if err := row.Scan(
		&order.ID,
		&order.SessionID,
		&customerJSON,
		&order.Total,
		&order.Currency,
		&order.Status,
		&itemsJSON,
		&order.Message,
		&order.WhatsAppURL,
		&order.PlacedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(customerJSON, &order.Customer); err != nil {
		return nil, fmt.Errorf("unmarshal customer: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}
