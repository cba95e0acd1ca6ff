package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
	"github.com/josh-kwaku/settlement-ledger/internal/report"
)

type reportService interface {
	Monthly(ctx context.Context, year int, month time.Month) (*report.Report, error)
	Batch(ctx context.Context, id uuid.UUID) (*domain.PaymentBatch, *report.Block, error)
}

type ReportHandler struct {
	reports reportService
}

func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type reportDTO struct {
	Month             string         `json:"month"`
	Dates             []dateGroupDTO `json:"dates"`
	GrandTotal        string         `json:"grand_total"`
	GrandTotalDisplay string         `json:"grand_total_display"`
	Warnings          []string       `json:"warnings"`
}

type dateGroupDTO struct {
	Date   string     `json:"date"`
	Blocks []blockDTO `json:"blocks"`
}

type blockDTO struct {
	BatchID          uuid.UUID        `json:"batch_id"`
	BankReference    string           `json:"bank_reference"`
	DisplayReference string           `json:"display_reference"`
	Invoices         []paidInvoiceDTO `json:"invoices"`
	Subtotal         string           `json:"subtotal"`
	SubtotalDisplay  string           `json:"subtotal_display"`
}

func toReportDTO(rep *report.Report) reportDTO {
	dto := reportDTO{
		Month:             time.Date(rep.Year, rep.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
		Dates:             make([]dateGroupDTO, len(rep.Dates)),
		GrandTotal:        money.String(rep.GrandTotal),
		GrandTotalDisplay: money.Format(rep.GrandTotal),
		Warnings:          rep.Warnings,
	}
	if dto.Warnings == nil {
		dto.Warnings = []string{}
	}

	for i, g := range rep.Dates {
		group := dateGroupDTO{Date: g.Label, Blocks: make([]blockDTO, len(g.Blocks))}
		for j, b := range g.Blocks {
			group.Blocks[j] = blockDTO{
				BatchID:          b.BatchID,
				BankReference:    b.BankReference,
				DisplayReference: b.DisplayReference,
				Invoices:         toPaidInvoiceDTOs(b.Invoices),
				Subtotal:         money.String(b.Subtotal),
				SubtotalDisplay:  money.Format(b.Subtotal),
			}
		}
		dto.Dates[i] = group
	}
	return dto
}

func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	year, month, err := report.ParseMonth(r.PathValue("month"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "month", Message: "must be in YYYY-MM form"}})
		return
	}

	rep, err := h.reports.Monthly(r.Context(), year, month)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to build report", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toReportDTO(rep))
}

type batchDetailDTO struct {
	Batch    *batchDTO        `json:"batch"`
	Invoices []paidInvoiceDTO `json:"invoices"`
	Subtotal string           `json:"subtotal"`
}

func (h *ReportHandler) Batch(w http.ResponseWriter, r *http.Request) {
	id, fields := parsePathID(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	batch, block, err := h.reports.Batch(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, batchDetailDTO{
		Batch:    toBatchDTO(batch),
		Invoices: toPaidInvoiceDTOs(block.Invoices),
		Subtotal: money.String(block.Subtotal),
	})
}
