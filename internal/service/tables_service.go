package service

import (
	"context"

	"studentmedia/internal/repository"
)

type TablesService interface {
	CountTables(ctx context.Context) (int, error)
}

type tablesService struct {
	tablesRepo repository.TablesRepository
}

func NewTablesService(tablesRepo repository.TablesRepository) TablesService {
	return &tablesService{tablesRepo: tablesRepo}
}

func (t *tablesService) CountTables(ctx context.Context) (int, error) {
	return t.tablesRepo.CountTables(ctx)
}
