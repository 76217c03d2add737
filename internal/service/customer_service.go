package service

import (
	"context"
	"errors"
	"strings"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/repository"
	"github.com/sirupsen/logrus"
)

// CustomerService keeps exactly one default address on every customer it
// writes.
type CustomerService struct {
	repo repository.CustomerRepository
	log  logrus.FieldLogger
}

func NewCustomerService(repo repository.CustomerRepository, log logrus.FieldLogger) *CustomerService {
	return &CustomerService{repo: repo, log: log}
}

func (s *CustomerService) Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(customer.FirebaseUID) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "firebaseUid is required")
	}
	if strings.TrimSpace(customer.Email) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "email is required")
	}
	domain.EnsureOneDefault(customer.Addresses)

	if err := s.repo.Create(ctx, customer); err != nil {
		logFailure(s.log, err, "failed to create customer", logrus.Fields{"firebase_uid": customer.FirebaseUID})
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) FindByFirebaseUID(ctx context.Context, uid string) (*domain.Customer, error) {
	return s.repo.FindByFirebaseUID(ctx, uid)
}

// FindOrCreate returns the customer with the given firebase uid, creating it
// from customer when it does not exist yet.
func (s *CustomerService) FindOrCreate(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	existing, err := s.repo.FindByFirebaseUID(ctx, customer.FirebaseUID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	created, err := s.Create(ctx, customer)
	if errors.Is(err, domain.ErrDuplicateKey) {
		// lost the race against another first login
		return s.repo.FindByFirebaseUID(ctx, customer.FirebaseUID)
	}
	return created, err
}

func (s *CustomerService) UpdateByFirebaseUID(ctx context.Context, uid string, update domain.CustomerUpdate) (*domain.Customer, error) {
	if update.Email != nil && strings.TrimSpace(*update.Email) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "email cannot be empty")
	}
	if update.Addresses != nil {
		domain.EnsureOneDefault(*update.Addresses)
	}

	customer, err := s.repo.UpdateByFirebaseUID(ctx, uid, update)
	if err != nil {
		logFailure(s.log, err, "failed to update customer", logrus.Fields{"firebase_uid": uid})
		return nil, err
	}
	return customer, nil
}
