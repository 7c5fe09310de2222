package services

import (
	"errors"
	"fmt"

	"github.com/bibliofeed/bibliofeed/pkg/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AccountService reads identities provisioned by the gateway. It never
// creates or destroys users on its own; UpsertAccount only mirrors what the
// gateway already authenticated.
type AccountService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewAccountService(db *gorm.DB, logger zerolog.Logger) *AccountService {
	return &AccountService{db: db, logger: logger}
}

func (s *AccountService) GetAccountWithID(id uint) (models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return account, ErrNotFound
		}
		return account, fmt.Errorf("unable to get account by id: %v", err)
	}
	return account, nil
}

func (s *AccountService) GetAccountWithName(name string) (models.Account, error) {
	var account models.Account
	if err := s.db.Where("name = ?", name).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return account, ErrNotFound
		}
		return account, fmt.Errorf("unable to get account by name: %v", err)
	}
	return account, nil
}

// UpsertAccount mirrors an identity the gateway just authenticated. Only the
// nick follows the gateway; the bio stays whatever the user set here.
func (s *AccountService) UpsertAccount(name, nick string) (models.Account, error) {
	var account models.Account
	if err := s.db.Where("name = ?", name).First(&account).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return account, fmt.Errorf("unable to check account: %v", err)
		}
		account = models.Account{Name: name, Nick: nick}
		if err := s.db.Create(&account).Error; err != nil {
			return account, fmt.Errorf("unable to create account: %v", err)
		}
		s.logger.Info().Str("name", name).Msg("Synced a new account from gateway.")
		return account, nil
	}

	if len(nick) > 0 && nick != account.Nick {
		account.Nick = nick
		if err := s.db.Save(&account).Error; err != nil {
			return account, fmt.Errorf("unable to update account: %v", err)
		}
	}
	return account, nil
}
