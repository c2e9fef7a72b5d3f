package domain

import "time"

type SessionID string
type MessageID string
type RecordID string

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DiagnosisLabel is the categorical output of the inference service.
type DiagnosisLabel string

const (
	DiagnosisBenign    DiagnosisLabel = "Benign"
	DiagnosisMalignant DiagnosisLabel = "Malignant"
	DiagnosisNormal    DiagnosisLabel = "Normal"
)

type Timestamp = time.Time
