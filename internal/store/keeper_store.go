package store

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/zeloxinc/zel-shop-server/internal/model"
)

// GormKeeperStore is the PostgreSQL-backed KeeperStore
type GormKeeperStore struct {
	db *gorm.DB
}

// NewKeeperStore creates a KeeperStore over the given database handle
func NewKeeperStore(db *gorm.DB) *GormKeeperStore {
	return &GormKeeperStore{db: db}
}

func (s *GormKeeperStore) CreateShopkeeper(ctx context.Context, profile KeeperProfile, password string) (*model.Shopkeeper, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	keeper := &model.Shopkeeper{
		KeeperCode:     NewKeeperCode(),
		FirstName:      profile.FirstName,
		LastName:       profile.LastName,
		Phone:          profile.Phone,
		Email:          profile.Email,
		PasswordHash:   string(hashed),
		Role:           "owner",
		IsVerified:     false,
		IsActive:       false,
		ActivationCode: NewActivationCode(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Shopkeeper{}).Where("phone = ?", profile.Phone).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicatePhone
		}

		// Keeper codes are short; retry once on the unlikely collision
		if err := tx.Create(keeper).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				keeper.KeeperCode = NewKeeperCode()
				return tx.Create(keeper).Error
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keeper, nil
}

func (s *GormKeeperStore) FindByPhone(ctx context.Context, phone string) (*model.Shopkeeper, error) {
	var keeper model.Shopkeeper
	result := s.db.WithContext(ctx).Where("phone = ?", phone).First(&keeper)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &keeper, nil
}

func (s *GormKeeperStore) VerifyCredentials(ctx context.Context, phone, password string) (*model.Shopkeeper, error) {
	var keeper model.Shopkeeper
	result := s.db.WithContext(ctx).Preload("Shop").Where("phone = ?", phone).First(&keeper)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, result.Error
	}

	if err := bcrypt.CompareHashAndPassword([]byte(keeper.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &keeper, nil
}

func (s *GormKeeperStore) Activate(ctx context.Context, phone, plan string, dueDate time.Time, activationCode string) error {
	result := s.db.WithContext(ctx).Model(&model.Shopkeeper{}).
		Where("phone = ?", phone).
		Updates(map[string]interface{}{
			"is_active":       true,
			"plan_type":       plan,
			"due_date":        dueDate,
			"activation_code": activationCode,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormKeeperStore) ConsumeActivationCode(ctx context.Context, phone, code string) (*model.Shopkeeper, error) {
	var keeper model.Shopkeeper
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("phone = ? AND activation_code = ? AND is_verified = ?", phone, code, false).First(&keeper)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrInvalidCode
			}
			return result.Error
		}

		// The code is single-use: clear it in the same transaction
		return tx.Model(&keeper).Updates(map[string]interface{}{
			"is_verified":     true,
			"activation_code": "",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &keeper, nil
}

func (s *GormKeeperStore) ResolveAPIKey(ctx context.Context, apiKey string) (*model.Shop, *model.Shopkeeper, error) {
	var shop model.Shop
	result := s.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&shop)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidKey
		}
		return nil, nil, result.Error
	}

	var keeper model.Shopkeeper
	result = s.db.WithContext(ctx).Where("shop_id = ?", shop.ID).First(&keeper)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidKey
		}
		return nil, nil, result.Error
	}

	return &shop, &keeper, nil
}

func (s *GormKeeperStore) CreateShopForKeeper(ctx context.Context, keeperID uint, profile ShopProfile) (*model.Shop, error) {
	shop := &model.Shop{
		Name:    profile.Name,
		Phone:   profile.Phone,
		Email:   profile.Email,
		Address: profile.Address,
		APIKey:  NewAPIKey(),
	}

	// Shop insert and keeper link must apply together; a shop nobody is
	// linked to is a correctness bug.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(shop).Error; err != nil {
			return err
		}

		result := tx.Model(&model.Shopkeeper{}).
			Where("id = ?", keeperID).
			Update("shop_id", shop.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shop, nil
}

func (s *GormKeeperStore) GetKeeper(ctx context.Context, keeperID uint) (*model.Shopkeeper, error) {
	var keeper model.Shopkeeper
	result := s.db.WithContext(ctx).Preload("Shop").First(&keeper, keeperID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &keeper, nil
}

func (s *GormKeeperStore) ListShopKeepers(ctx context.Context, shopID uint) ([]model.Shopkeeper, error) {
	var keepers []model.Shopkeeper
	result := s.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("role, first_name").
		Find(&keepers)
	if result.Error != nil {
		return nil, result.Error
	}
	return keepers, nil
}

func (s *GormKeeperStore) GetShop(ctx context.Context, shopID uint) (*model.Shop, error) {
	var shop model.Shop
	result := s.db.WithContext(ctx).First(&shop, shopID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &shop, nil
}

func (s *GormKeeperStore) UpdateShop(ctx context.Context, shopID uint, profile ShopProfile) (*model.Shop, error) {
	var shop model.Shop
	result := s.db.WithContext(ctx).First(&shop, shopID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}

	shop.Name = profile.Name
	shop.Phone = profile.Phone
	shop.Email = profile.Email
	shop.Address = profile.Address

	if err := s.db.WithContext(ctx).Save(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (s *GormKeeperStore) DeleteShop(ctx context.Context, shopID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Shopkeeper{}).
			Where("shop_id = ?", shopID).
			Update("shop_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.Shop{}, shopID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
