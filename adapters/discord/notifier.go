package discord

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Notifier 透過 Discord session 發布與維護交易訊息。
// 每筆交易對應一則帶有出價按鈕的訊息，最低報價變動時就地編輯。
type Notifier struct {
	session  *discordgo.Session
	currency string
	logger   *slog.Logger
}

// NewNotifier 建立一個新的 Discord 通知器。
// currency 是顯示金額時使用的貨幣符號，與引擎的報價顯示共用同一組態。
func NewNotifier(session *discordgo.Session, currency string, logger *slog.Logger) (*Notifier, error) {
	if session == nil {
		return nil, errors.New("discord session cannot be nil")
	}
	if currency == "" {
		return nil, errors.New("currency symbol cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		session:  session,
		currency: currency,
		logger:   logger.With(slog.String("caller", "DiscordNotifier")),
	}, nil
}

// PostDeal 在指定頻道發布交易訊息，回傳訊息ID。
func (n *Notifier) PostDeal(channelID string, deal DealPost) (string, error) {
	const op = "PostDeal"

	embed, components := buildDealMessage(deal, n.currency, false)
	message, err := n.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to send deal message, err=%w", op, err)
	}
	n.logger.Info("Deal message posted",
		slog.String("op", op),
		slog.String("dealID", deal.ID.String()),
		slog.String("messageID", message.ID))
	return message.ID, nil
}

// UpdateBest 以新的最低報價重建並編輯交易訊息。
func (n *Notifier) UpdateBest(channelID, messageID string, deal DealPost) error {
	const op = "UpdateBest"

	if err := n.editDealMessage(channelID, messageID, deal, false); err != nil {
		return fmt.Errorf("[%s] Fail to edit deal message, err=%w", op, err)
	}
	return nil
}

// DisableDeal 停用交易訊息上的出價按鈕。
func (n *Notifier) DisableDeal(channelID, messageID string, deal DealPost) error {
	const op = "DisableDeal"

	if err := n.editDealMessage(channelID, messageID, deal, true); err != nil {
		return fmt.Errorf("[%s] Fail to disable deal message, err=%w", op, err)
	}
	return nil
}

func (n *Notifier) editDealMessage(channelID, messageID string, deal DealPost, disabled bool) error {
	embed, components := buildDealMessage(deal, n.currency, disabled)
	_, err := n.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	return err
}

// buildDealMessage 組出交易訊息的 embed 與出價按鈕。
// 訊息永遠從交易目前的狀態整體重建，編輯時不需讀回舊訊息。
func buildDealMessage(deal DealPost, currency string, disabled bool) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title:       deal.Title,
		Description: deal.Description,
	}
	if deal.Ceiling != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Maximum buying price",
			Value:  fmt.Sprintf("%s%.2f", currency, *deal.Ceiling),
			Inline: true,
		})
	}
	best := deal.BestDisplay
	if best == "" {
		best = "No offers yet"
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Current best offer",
		Value:  best,
		Inline: true,
	})

	label := "Place offer"
	if disabled {
		label = "Offers closed"
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    label,
					Style:    discordgo.PrimaryButton,
					CustomID: bidButtonID(deal.ID),
					Disabled: disabled,
				},
			},
		},
	}
	return embed, components
}
