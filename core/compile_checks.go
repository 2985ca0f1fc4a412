package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ URLHandler      = (*Service)(nil)
	_ OfferReceiver   = (*Service)(nil)
	_ RedirectAwaiter = (*Service)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
