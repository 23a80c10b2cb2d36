// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"crypto_advisor/internal/feature/auth/domain/entity"
	"crypto_advisor/internal/feature/auth/usecase"
)

// userSQLite はUserRepositoryインターフェースのSQLite実装です。
// GORMを使用してデータベース操作を行います。
type userSQLite struct {
	db *gorm.DB
}

// userSQLiteがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userSQLite)(nil)

// NewUserSQLite は指定されたgorm.DB接続でuserSQLiteの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタです。
func NewUserSQLite(db *gorm.DB) *userSQLite {
	return &userSQLite{db: db}
}

// Create はユーザーをデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userSQLite) Create(ctx context.Context, u *entity.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		// TranslateError有効時、ユニークキー重複はgorm.ErrDuplicatedKeyに変換される
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userSQLite) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
