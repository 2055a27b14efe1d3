package guarded

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/resilience"
)

// CatalogStore runs every call of the wrapped store through a resilience executor.
// Connection-level failures are retried and surface as domain.ErrTemporary.
type CatalogStore struct {
	next     ports.CatalogStore
	executor *resilience.Executor
}

func NewCatalogStore(next ports.CatalogStore, executor *resilience.Executor) *CatalogStore {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.CatalogPolicy())
	}
	return &CatalogStore{next: next, executor: executor}
}

func (s *CatalogStore) ListBrands(ctx context.Context, equipmentType domain.EquipmentType) ([]string, error) {
	out, err := resilience.Do(ctx, s.executor, "catalog.list_brands", func(ctx context.Context) ([]string, error) {
		return s.next.ListBrands(ctx, equipmentType)
	}, classifyCatalogError)
	return out, wrapTemporaryIfNeeded("catalog list brands", err)
}

func (s *CatalogStore) ListModels(ctx context.Context, equipmentType domain.EquipmentType, brand string) ([]string, error) {
	out, err := resilience.Do(ctx, s.executor, "catalog.list_models", func(ctx context.Context) ([]string, error) {
		return s.next.ListModels(ctx, equipmentType, brand)
	}, classifyCatalogError)
	return out, wrapTemporaryIfNeeded("catalog list models", err)
}

func (s *CatalogStore) Get(ctx context.Context, key domain.CatalogKey) (*domain.CatalogEntry, error) {
	out, err := resilience.Do(ctx, s.executor, "catalog.get", func(ctx context.Context) (*domain.CatalogEntry, error) {
		return s.next.Get(ctx, key)
	}, classifyCatalogError)
	return out, wrapTemporaryIfNeeded("catalog get", err)
}

func (s *CatalogStore) FuzzySearch(
	ctx context.Context,
	query string,
	equipmentType domain.EquipmentType,
	limit int,
) ([]domain.CatalogCandidate, error) {
	out, err := resilience.Do(ctx, s.executor, "catalog.fuzzy_search", func(ctx context.Context) ([]domain.CatalogCandidate, error) {
		return s.next.FuzzySearch(ctx, query, equipmentType, limit)
	}, classifyCatalogError)
	return out, wrapTemporaryIfNeeded("catalog fuzzy search", err)
}

// Upsert merges specs, so repeating it after a dropped connection is harmless.
func (s *CatalogStore) Upsert(ctx context.Context, entry domain.CatalogEntry) error {
	err := s.executor.Execute(ctx, "catalog.upsert", func(ctx context.Context) error {
		return s.next.Upsert(ctx, entry)
	}, classifyCatalogError)
	return wrapTemporaryIfNeeded("catalog upsert", err)
}

// IncrementUsage is never retried: a lost acknowledgement would count twice.
func (s *CatalogStore) IncrementUsage(ctx context.Context, key domain.CatalogKey) error {
	err := s.executor.Execute(ctx, "catalog.increment_usage", func(ctx context.Context) error {
		return s.next.IncrementUsage(ctx, key)
	}, func(err error) resilience.ErrorClassification {
		class := classifyCatalogError(err)
		class.Retryable = false
		return class
	})
	return wrapTemporaryIfNeeded("catalog increment usage", err)
}

func classifyCatalogError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrNotFound) || domain.IsKind(err, domain.ErrInvalidInput) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if isConnectionError(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08 is connection exceptions, 57P0x is server shutdown
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyCatalogError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
