package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"dealbridge/engine"
)

const (
	bidButtonPrefix = "bid:"
	bidModalPrefix  = "bid-modal:"

	fieldSellerCode = "seller_code"
	fieldPrice      = "price"
	fieldTaxType    = "tax_type"

	submitTimeout = 10 * time.Second
)

func bidButtonID(dealID uuid.UUID) string {
	return bidButtonPrefix + dealID.String()
}

func bidModalID(dealID uuid.UUID) string {
	return bidModalPrefix + dealID.String()
}

// parseCustomID 從互動元件的 CustomID 取出交易ID
func parseCustomID(customID, prefix string) (uuid.UUID, bool) {
	raw, found := strings.CutPrefix(customID, prefix)
	if !found {
		return uuid.Nil, false
	}
	dealID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return dealID, true
}

// InteractionHandler 處理交易訊息上的出價互動:
// 按鈕點擊開啟出價表單，表單送出後轉交給 BidSubmitter，
// 並將接受或拒絕的結果原文以 ephemeral 訊息回覆給出價者。
type InteractionHandler struct {
	submitter BidSubmitter
	logger    *slog.Logger
}

// NewInteractionHandler 建立一個新的互動處理器。
func NewInteractionHandler(submitter BidSubmitter, logger *slog.Logger) *InteractionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionHandler{
		submitter: submitter,
		logger:    logger.With(slog.String("caller", "DiscordInteraction")),
	}
}

// Register 將處理器掛上 Discord session。
func (h *InteractionHandler) Register(session *discordgo.Session) {
	session.AddHandler(h.handle)
}

func (h *InteractionHandler) handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		if dealID, ok := parseCustomID(i.MessageComponentData().CustomID, bidButtonPrefix); ok {
			h.openBidModal(s, i, dealID)
		}
	case discordgo.InteractionModalSubmit:
		if dealID, ok := parseCustomID(i.ModalSubmitData().CustomID, bidModalPrefix); ok {
			h.submitBid(s, i, dealID)
		}
	}
}

// openBidModal 回應按鈕點擊，開啟出價表單。
// Discord 的表單只支援文字輸入，計價基準也以文字欄位收集，
// 由引擎的解析器負責嚴格比對。
func (h *InteractionHandler) openBidModal(s *discordgo.Session, i *discordgo.InteractionCreate, dealID uuid.UUID) {
	const op = "openBidModal"

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: bidModalID(dealID),
			Title:    "Place your offer",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    fieldSellerCode,
							Label:       "Seller code",
							Style:       discordgo.TextInputShort,
							Placeholder: "S-100",
							Required:    true,
							MaxLength:   32,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    fieldPrice,
							Label:       "Price",
							Style:       discordgo.TextInputShort,
							Placeholder: "99,95",
							Required:    true,
							MaxLength:   32,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    fieldTaxType,
							Label:       "Tax type (Margin, VAT0 or VAT21)",
							Style:       discordgo.TextInputShort,
							Placeholder: "Margin",
							Required:    true,
							MaxLength:   16,
						},
					},
				},
			},
		},
	})
	if err != nil {
		h.logger.Error("Fail to open bid modal",
			slog.String("op", op),
			slog.String("dealID", dealID.String()),
			slog.Any("error", err))
	}
}

// submitBid 處理表單送出，轉交給提交入口並回覆結果。
func (h *InteractionHandler) submitBid(s *discordgo.Session, i *discordgo.InteractionCreate, dealID uuid.UUID) {
	const op = "submitBid"

	fields := modalFields(i.ModalSubmitData())
	req := engine.SubmitRequest{
		DealID:     dealID,
		SellerCode: strings.TrimSpace(fields[fieldSellerCode]),
		RawPrice:   fields[fieldPrice],
		TaxType:    strings.TrimSpace(fields[fieldTaxType]),
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	var reply string
	result, err := h.submitter.SubmitBid(ctx, req)
	switch {
	case err != nil:
		h.logger.Error("Fail to submit bid",
			slog.String("op", op),
			slog.String("dealID", dealID.String()),
			slog.Any("error", err))
		reply = "Something went wrong while saving your offer, please try again."
	case result.Accepted:
		reply = fmt.Sprintf("Offer accepted at %s.", req.RawPrice)
	default:
		reply = result.Reason
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		h.logger.Error("Fail to reply to bid submission",
			slog.String("op", op),
			slog.String("dealID", dealID.String()),
			slog.Any("error", err))
	}
}

// modalFields 將表單元件攤平成 CustomID 到輸入值的對照
func modalFields(data discordgo.ModalSubmitInteractionData) map[string]string {
	fields := make(map[string]string)
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			if input, ok := component.(*discordgo.TextInput); ok {
				fields[input.CustomID] = input.Value
			}
		}
	}
	return fields
}
