package app

// The shared message types live in internal/msg; the aliases keep the
// switch in Update readable.

import appmsg "github.com/sadopc/oraterm/internal/msg"

type (
	Pane              = appmsg.Pane
	StatusMsg         = appmsg.StatusMsg
	FocusMsg          = appmsg.FocusMsg
	ExecuteQueryMsg   = appmsg.ExecuteQueryMsg
	CopyRequestMsg    = appmsg.CopyRequestMsg
	CopyDoneMsg       = appmsg.CopyDoneMsg
	ExportRequestMsg  = appmsg.ExportRequestMsg
	ExportCompleteMsg = appmsg.ExportCompleteMsg
	ExportErrMsg      = appmsg.ExportErrMsg
)

const (
	PaneList   = appmsg.PaneList
	PaneDetail = appmsg.PaneDetail
	PaneSQL    = appmsg.PaneSQL
)
