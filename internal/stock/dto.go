package stock

import "time"

type createEntryRequest struct {
	ProductName  string  `json:"product_name" validate:"required"`
	Qty          int64   `json:"qty" validate:"required,gt=0"`
	Inbound      bool    `json:"inbound"`
	Date         string  `json:"date" validate:"required"`
	Expiry       *string `json:"expiry,omitempty"`
	ActivityName string  `json:"activity_name,omitempty"`
	PIC          string  `json:"pic,omitempty"`
}

type reviseEntryRequest struct {
	Qty          *int64  `json:"qty,omitempty" validate:"omitempty,gt=0"`
	Date         *string `json:"date,omitempty"`
	ActivityName *string `json:"activity_name,omitempty"`
	PIC          *string `json:"pic,omitempty"`
}

type consumptionLineResponse struct {
	LotID int64 `json:"lot_id"`
	Qty   int64 `json:"qty"`
}

type entryResponse struct {
	ID          int64                     `json:"id"`
	Code        string                    `json:"code"`
	ProductID   int64                     `json:"product_id"`
	Direction   Direction                 `json:"direction"`
	Qty         int64                     `json:"qty"`
	Date        string                    `json:"date"`
	Expiry      *string                   `json:"expiry,omitempty"`
	ActivityID  *int64                    `json:"activity_id,omitempty"`
	Consumption []consumptionLineResponse `json:"consumption"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

type lotResponse struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Remaining int64   `json:"remaining"`
	Expiry    *string `json:"expiry,omitempty"`
}

const dateLayout = "2006-01-02"

func toEntryResponse(entry LedgerEntry) entryResponse {
	resp := entryResponse{
		ID:         entry.ID,
		Code:       entry.Code,
		ProductID:  entry.ProductID,
		Direction:  entry.Direction,
		Qty:        entry.Qty,
		Date:       entry.OccurredAt.Format(dateLayout),
		ActivityID: entry.ActivityID,
		CreatedAt:  entry.CreatedAt,
		UpdatedAt:  entry.UpdatedAt,
	}
	if entry.Expiry != nil {
		expiry := entry.Expiry.Format(dateLayout)
		resp.Expiry = &expiry
	}
	resp.Consumption = make([]consumptionLineResponse, 0, len(entry.Consumption))
	for _, line := range entry.Consumption {
		resp.Consumption = append(resp.Consumption, consumptionLineResponse(line))
	}
	return resp
}

func toLotResponse(lot Lot) lotResponse {
	resp := lotResponse{ID: lot.ID, ProductID: lot.ProductID, Remaining: lot.Remaining}
	if lot.Expiry != nil {
		expiry := lot.Expiry.Format(dateLayout)
		resp.Expiry = &expiry
	}
	return resp
}
