package ui

import (
	"atui/model"
)

// Message type aliases - these are defined in the model package
type conversationsListMsg = model.ConversationsListMsg
type conversationLoadedMsg = model.ConversationLoadedMsg
type conversationCreatedMsg = model.ConversationCreatedMsg
type conversationRenamedMsg = model.ConversationRenamedMsg
type conversationDeletedMsg = model.ConversationDeletedMsg
type conversationExportedMsg = model.ConversationExportedMsg
type exportCleanupDoneMsg = model.ExportCleanupDoneMsg
type dataExportedMsg = model.DataExportedMsg
type dataExportCleanupDoneMsg = model.DataExportCleanupDoneMsg
type transcriptImportedMsg = model.TranscriptImportedMsg
type historyPageMsg = model.HistoryPageMsg
type indicatorDelayMsg = model.IndicatorDelayMsg
type loadTimeoutMsg = model.LoadTimeoutMsg
type searchResultsMsg = model.SearchResultsMsg
type replayLoadedMsg = model.ReplayLoadedMsg
type replayTickMsg = model.ReplayTickMsg
type flashTickMsg = model.FlashTickMsg

type SettingFieldType int

const (
	SettingTypeDataDir SettingFieldType = iota
	SettingTypePageSize
	SettingTypePreloadThreshold
	SettingTypeNearBottomRows
	SettingTypeViewMode
	SettingTypeReplayInterval
)

type SettingFieldValidation int

const (
	FieldValidationNone SettingFieldValidation = iota
	FieldValidationPending
	FieldValidationSuccess
	FieldValidationError
)

type SettingField struct {
	Label        string
	Value        string
	DefaultValue string
	Type         SettingFieldType
	Validation   SettingFieldValidation
	ErrorMsg     string
}
