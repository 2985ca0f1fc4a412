package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[HandleURLMessage]       = (*HandleURLCommand)(nil)
	_ gocmd.Commander[DeliverRedirectMessage] = (*DeliverRedirectCommand)(nil)
	_ gocmd.Commander[SubmitOfferMessage]     = (*SubmitOfferCommand)(nil)
)
