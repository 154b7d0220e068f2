package migrator

import (
	"errors"
	"fmt"

	"nepeats/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator 基于 golang-migrate 的数据库迁移
type Migrator struct {
	m *migrate.Migrate
}

// New sourceURL 形如 file://migrations，databaseURL 为 postgres:// 连接串
func New(sourceURL, databaseURL string) (*Migrator, error) {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up 执行全部未应用的迁移
// 数据库处于 dirty 状态时强制回到该版本后重试一次
func (r *Migrator) Up() error {
	err := r.m.Up()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}

	var dirty migrate.ErrDirty
	if !errors.As(err, &dirty) {
		return err
	}

	logger.Log.Warn("Database is dirty, forcing version", zap.Int("version", dirty.Version))
	if err := r.m.Force(dirty.Version); err != nil {
		return fmt.Errorf("force version %d: %w", dirty.Version, err)
	}
	if err := r.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Down 回滚 steps 个版本
func (r *Migrator) Down(steps int) error {
	if err := r.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (r *Migrator) Force(version int) error {
	return r.m.Force(version)
}

func (r *Migrator) Version() (uint, bool, error) {
	v, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (r *Migrator) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}
