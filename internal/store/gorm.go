package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/millwork-io/shoptrak/internal/database"
	"github.com/millwork-io/shoptrak/internal/models"
	"github.com/millwork-io/shoptrak/internal/tree"
)

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *database.DB
}

// NewGormStore wraps a database handle.
func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db}
}

// LoadWorkOrder loads the full aggregate. Subassemblies are fetched flat,
// expanding parent links level by level from this order's products (nesting
// depth is unbounded), and assembled in memory, which is also where nesting
// cycles are rejected. Rows belonging to other work orders are never read.
func (s *GormStore) LoadWorkOrder(ctx context.Context, id string) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	err := s.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Products.Parts").
		Preload("Products.Hardware").
		Preload("Hardware").
		Preload("NestSheets").
		Preload("NestSheets.Parts").
		First(&wo, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load work order %s: %w", id, err)
	}

	productIDs := make([]string, 0, len(wo.Products))
	for i := range wo.Products {
		productIDs = append(productIDs, wo.Products[i].ID)
	}
	flat, err := expandSubassemblies(productIDs,
		func(ids []string) ([]models.Subassembly, error) {
			var rows []models.Subassembly
			err := s.db.WithContext(ctx).Preload("Parts").Where("product_id IN ?", ids).Find(&rows).Error
			return rows, err
		},
		func(ids []string) ([]models.Subassembly, error) {
			var rows []models.Subassembly
			err := s.db.WithContext(ctx).Preload("Parts").Where("parent_id IN ?", ids).Find(&rows).Error
			return rows, err
		})
	if err != nil {
		return nil, fmt.Errorf("load subassemblies for %s: %w", id, err)
	}

	forest, err := tree.BuildSubassemblyForest(flat)
	if err != nil {
		return nil, fmt.Errorf("work order %s: %w", id, err)
	}
	for i := range wo.Products {
		wo.Products[i].Subassemblies = forest[wo.Products[i].ID]
	}

	if err := tree.ValidateWorkOrder(&wo); err != nil {
		return nil, fmt.Errorf("work order %s: %w", id, err)
	}
	return &wo, nil
}

// SaveTransition writes all mutated entities of one transition atomically.
func (s *GormStore) SaveTransition(ctx context.Context, workOrderID string, parts []*models.Part, hardware []*models.Hardware, sheets []*models.NestSheet) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range parts {
			if err := tx.Model(&models.Part{}).
				Where("id = ?", p.ID).
				Updates(map[string]interface{}{
					"status":        p.Status,
					"status_at":     p.StatusAt,
					"nest_sheet_id": p.NestSheetID,
				}).Error; err != nil {
				return fmt.Errorf("save part %s: %w", p.ID, err)
			}
		}
		for _, h := range hardware {
			if err := tx.Model(&models.Hardware{}).
				Where("id = ?", h.ID).
				Updates(map[string]interface{}{
					"status":    h.Status,
					"status_at": h.StatusAt,
				}).Error; err != nil {
				return fmt.Errorf("save hardware %s: %w", h.ID, err)
			}
		}
		for _, ns := range sheets {
			if err := tx.Model(&models.NestSheet{}).
				Where("id = ?", ns.ID).
				Updates(map[string]interface{}{
					"processed":    ns.Processed,
					"processed_at": ns.ProcessedAt,
				}).Error; err != nil {
				return fmt.Errorf("save nest sheet %s: %w", ns.ID, err)
			}
		}
		return nil
	})
}

// FindWorkOrderIDForBarcode resolves an entity barcode to its work order.
// Sheets, products and hardware carry the work order directly; a part is
// resolved through its owning product, walking the subassembly chain when
// nested.
func (s *GormStore) FindWorkOrderIDForBarcode(ctx context.Context, barcode string) (string, error) {
	var ns models.NestSheet
	miss, fault := probeResult(s.db.WithContext(ctx).Select("work_order_id").First(&ns, "id = ?", barcode).Error)
	if fault != nil {
		return "", fmt.Errorf("find work order for %s: %w", barcode, fault)
	}
	if !miss {
		return ns.WorkOrderID, nil
	}
	var p models.Product
	miss, fault = probeResult(s.db.WithContext(ctx).Select("work_order_id").First(&p, "id = ?", barcode).Error)
	if fault != nil {
		return "", fmt.Errorf("find work order for %s: %w", barcode, fault)
	}
	if !miss {
		return p.WorkOrderID, nil
	}
	var hw models.Hardware
	miss, fault = probeResult(s.db.WithContext(ctx).Select("work_order_id").First(&hw, "id = ?", barcode).Error)
	if fault != nil {
		return "", fmt.Errorf("find work order for %s: %w", barcode, fault)
	}
	if !miss {
		return hw.WorkOrderID, nil
	}

	var part models.Part
	err := s.db.WithContext(ctx).Select("id, product_id, subassembly_id").First(&part, "id = ?", barcode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find work order for %s: %w", barcode, err)
	}

	subID := part.SubassemblyID
	// Depth guard; load-time validation rejects cycles, this protects against
	// rows written behind its back.
	for ownerID, depth := part.ProductID, 0; depth < 100; depth++ {
		if ownerID != nil {
			var owner models.Product
			if err := s.db.WithContext(ctx).Select("work_order_id").First(&owner, "id = ?", *ownerID).Error; err != nil {
				return "", fmt.Errorf("find work order for %s: %w", barcode, err)
			}
			return owner.WorkOrderID, nil
		}
		if subID == nil {
			return "", ErrNotFound
		}
		var sa models.Subassembly
		if err := s.db.WithContext(ctx).Select("id, product_id, parent_id").First(&sa, "id = ?", *subID).Error; err != nil {
			return "", fmt.Errorf("find work order for %s: %w", barcode, err)
		}
		ownerID, subID = sa.ProductID, sa.ParentID
	}
	return "", ErrNotFound
}

// ArchiveWorkOrder stamps ArchivedAt. Archiving an already-archived order is
// a no-op.
func (s *GormStore) ArchiveWorkOrder(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.WorkOrder{}).
		Where("id = ? AND archived_at IS NULL", id).
		Update("archived_at", now)
	if res.Error != nil {
		return fmt.Errorf("archive work order %s: %w", id, res.Error)
	}
	return nil
}

// RecentNestSheets returns processed sheets, newest first.
func (s *GormStore) RecentNestSheets(ctx context.Context, workOrderID string, limit int) ([]models.NestSheet, error) {
	var sheets []models.NestSheet
	err := s.db.WithContext(ctx).
		Where("work_order_id = ? AND processed = true", workOrderID).
		Order("processed_at DESC").
		Limit(limit).
		Find(&sheets).Error
	if err != nil {
		return nil, fmt.Errorf("recent nest sheets for %s: %w", workOrderID, err)
	}
	return sheets, nil
}
