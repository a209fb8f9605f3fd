package bot

import (
	"bytes"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"go.uber.org/zap"

	"bfs-chain/block"
	bfscommon "bfs-chain/common"
	"bfs-chain/config"
	"bfs-chain/state"
	"bfs-chain/types"
)

// Notifier posts chain events to a Telegram chat.
type Notifier struct {
	botApi *tgbotapi.BotAPI
	chatID int64

	logger *zap.SugaredLogger
}

func New(cfg *config.BotConfig) (*Notifier, error) {
	botApi, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}

	n := &Notifier{
		botApi: botApi,
		chatID: cfg.ChatID,
		logger: zap.S().Named("[bot]"),
	}
	n.logger.Infof("Telegram bot authorized on account [%s]", botApi.Self.UserName)
	return n, nil
}

func (n *Notifier) NotifyBlock(b *block.Block, mined types.MiningBlockHeader) {
	n.sendMessage(FormatBlock(b, mined))
}

func (n *Notifier) NotifyReport(report string, richest []state.Account) {
	n.sendMessage(fmt.Sprintf("<b>%s</b>\n%s", report, FormatRichList(richest)))
}

func (n *Notifier) sendMessage(textMsg string) {
	if n.chatID == 0 {
		n.logger.Errorf("Telegram chat ID is zero")
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, textMsg)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := n.botApi.Send(msg); err != nil {
		n.logger.Errorf("Error sending message: %v", err)
	}
}

func FormatBlock(b *block.Block, mined types.MiningBlockHeader) string {
	info := b.Info()
	return fmt.Sprintf("⛏ <b>Block %d</b> <code>%s</code>\n"+
		"Txs: <code>%d</code>, volume: <code>%s</code>, fees: <code>%s</code>\n"+
		"Miner: <code>%s</code>, nonce: <code>%d</code>, difficulty: <code>%d</code>",
		b.Number(), bfscommon.ShortHash(b.Hash().Hex()),
		b.Len(), bfscommon.FormatAmount(info.Volume), bfscommon.FormatAmount(info.TotalFees),
		bfscommon.ShortHash(mined.MinerAddress), mined.Nonce, mined.Difficulty)
}

// FormatRichList renders accounts as a markdown table inside a pre block.
func FormatRichList(accounts []state.Account) string {
	data := make([][]string, 0, len(accounts))
	for i, acc := range accounts {
		data = append(data, []string{
			fmt.Sprintf("%d", i+1),
			bfscommon.ShortHash(acc.Address),
			bfscommon.FormatAmount(acc.Balance),
			fmt.Sprintf("%d", acc.Nonce),
		})
	}

	md := renderer.NewMarkdown(
		tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
		},
	)

	var tableString bytes.Buffer
	table := tablewriter.NewTable(&tableString,
		tablewriter.WithRenderer(md),
		tablewriter.WithHeaderAutoFormat(tw.Off),
		tablewriter.WithHeaderAlignment(tw.AlignNone),
		tablewriter.WithRowAlignment(tw.AlignNone),
	)
	table.Header([]string{"#", "Account", "Balance", "Nonce"})
	_ = table.Bulk(data)
	_ = table.Render()

	return "<pre>\n" + tableString.String() + "</pre>\n"
}
