package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/database"
	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/salesdesk/crm-api/internal/repository"
	"github.com/salesdesk/crm-api/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database with the full schema.
// A single connection keeps every query on the same SQLite handle.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role domain.Role) *domain.User {
	t.Helper()

	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
	user := &domain.User{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedCustomer(t *testing.T, db *gorm.DB, name string, assignedTo *uint) *domain.Customer {
	t.Helper()

	customer := &domain.Customer{Name: name, AssignedTo: assignedTo}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64) *domain.Product {
	t.Helper()

	product := &domain.Product{Name: name, Price: price}
	require.NoError(t, db.Create(product).Error)
	return product
}

func ctxFor(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	})
}

func strPtr(v string) *string { return &v }

func newLeadService(db *gorm.DB) *service.LeadService {
	userRepo := repository.NewUserRepository(db)
	return service.NewLeadService(
		repository.NewLeadRepository(db),
		repository.NewLeadLostRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewLeadSourceRepository(db),
		userRepo,
		service.NewAssignmentValidator(userRepo),
		zap.NewNop(),
		db,
	)
}

func newCustomerService(db *gorm.DB) *service.CustomerService {
	userRepo := repository.NewUserRepository(db)
	return service.NewCustomerService(
		repository.NewCustomerRepository(db),
		userRepo,
		service.NewAssignmentValidator(userRepo),
		zap.NewNop(),
	)
}

func newDealService(db *gorm.DB) *service.DealService {
	userRepo := repository.NewUserRepository(db)
	return service.NewDealService(
		repository.NewDealRepository(db),
		repository.NewDealArchiveRepository(db),
		repository.NewCustomerRepository(db),
		userRepo,
		service.NewAssignmentValidator(userRepo),
		zap.NewNop(),
		db,
	)
}

func newFollowupService(db *gorm.DB) *service.FollowupService {
	userRepo := repository.NewUserRepository(db)
	return service.NewFollowupService(
		repository.NewFollowupRepository(db),
		repository.NewCustomerRepository(db),
		userRepo,
		service.NewAssignmentValidator(userRepo),
		zap.NewNop(),
	)
}

func newNoteService(db *gorm.DB) *service.NoteService {
	return service.NewNoteService(
		repository.NewNoteRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewDealRepository(db),
		repository.NewLeadRepository(db),
		zap.NewNop(),
	)
}

func newQuotationService(db *gorm.DB) *service.QuotationService {
	userRepo := repository.NewUserRepository(db)
	return service.NewQuotationService(
		repository.NewQuotationRepository(db),
		repository.NewNumberSequenceRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewProductRepository(db),
		service.NewAssignmentValidator(userRepo),
		zap.NewNop(),
		db,
	)
}

func newProductService(db *gorm.DB) *service.ProductService {
	return service.NewProductService(repository.NewProductRepository(db), zap.NewNop())
}

func newUserService(db *gorm.DB) *service.UserService {
	return service.NewUserService(repository.NewUserRepository(db), zap.NewNop())
}

func newLeadSourceService(db *gorm.DB) *service.LeadSourceService {
	return service.NewLeadSourceService(repository.NewLeadSourceRepository(db), zap.NewNop())
}

// uniquePhone keeps seeded customers clear of the phone uniqueness
// constraint across subtests sharing a database.
var phoneCounter int

func uniquePhone() string {
	phoneCounter++
	return fmt.Sprintf("+4790000%04d", phoneCounter)
}
