package alerting

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	webhookURLConfigKeyConstant       = "webhook_url"
	thresholdConfigKeyConstant        = "threshold"
	cooldownConfigKeyConstant         = "cooldown"
	configurationKeySeparatorConstant = "."
	defaultAlertThresholdConstant     = 3
	defaultAlertCooldownConstant      = 15 * time.Minute
	defaultCooldownStringConstant     = "15m"
	defaultHTTPTimeoutConstant        = 10 * time.Second
	serviceNameConstant               = "gitcoord"
	highSeverityFailureCountConstant  = 5
	severityHighConstant              = "HIGH"
	severityMediumConstant            = "MEDIUM"
	contentTypeJSONConstant           = "application/json"
	errorRecordedMessageConstant      = "alert manager recorded error"
	alertSentMessageConstant          = "alert delivered via webhook"
	alertDeliveryFailedMessage        = "unable to deliver webhook alert"
	alertPayloadEncodingFailedMessage = "unable to encode alert payload"
	logFieldAlertKindConstant         = "alert_kind"
	logFieldErrorCountConstant        = "error_count"
	logFieldWebhookStatusConstant     = "webhook_status"
	timestampLayoutConstant           = time.RFC3339
)

// Configuration describes the alerting collaborator settings.
type Configuration struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Threshold  int           `mapstructure:"threshold"`
	Cooldown   time.Duration `mapstructure:"cooldown"`
}

// DefaultConfiguration returns the alerting defaults. An empty webhook URL
// disables outward delivery while error accounting continues.
func DefaultConfiguration() Configuration {
	return Configuration{
		Threshold: defaultAlertThresholdConstant,
		Cooldown:  defaultAlertCooldownConstant,
	}
}

// DefaultConfigurationValues exposes alerting defaults for configuration
// loading under the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	prefixedKey := func(configurationKey string) string {
		return configurationKeyPrefix + configurationKeySeparatorConstant + configurationKey
	}

	return map[string]any{
		prefixedKey(webhookURLConfigKeyConstant): "",
		prefixedKey(thresholdConfigKeyConstant):  defaultAlertThresholdConstant,
		prefixedKey(cooldownConfigKeyConstant):   defaultCooldownStringConstant,
	}
}

type alertPayload struct {
	Timestamp  string `json:"timestamp"`
	Service    string `json:"service"`
	AlertType  string `json:"alert_type"`
	Message    string `json:"message"`
	ErrorCount int    `json:"error_count"`
	Severity   string `json:"severity"`
}

// Manager counts failures and delivers webhook alerts once the threshold is
// reached and the cooldown has elapsed. It is safe for concurrent use.
type Manager struct {
	configuration Configuration
	logger        *zap.Logger
	httpClient    *http.Client
	clock         func() time.Time

	stateMutex    sync.Mutex
	errorCount    int
	lastAlertTime time.Time
}

// NewManager constructs an alert manager.
func NewManager(configuration Configuration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if configuration.Threshold <= 0 {
		configuration.Threshold = defaultAlertThresholdConstant
	}
	if configuration.Cooldown <= 0 {
		configuration.Cooldown = defaultAlertCooldownConstant
	}

	return &Manager{
		configuration: configuration,
		logger:        logger,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeoutConstant},
		clock:         time.Now,
	}
}

// RecordError registers a failed operation and sends an alert when the error
// count reaches the threshold outside the cooldown window. The counter resets
// after a delivery so each alert represents a fresh run of failures. The
// webhook POST happens outside the state lock; a slow endpoint must not stall
// concurrent error accounting.
func (manager *Manager) RecordError(message string, kind string) {
	payload, deliver := manager.registerError(message, kind)
	if !deliver {
		return
	}

	manager.deliverAlert(payload, kind)
}

// RecordRecovery drains one error from the counter after a successful
// operation.
func (manager *Manager) RecordRecovery() {
	manager.stateMutex.Lock()
	defer manager.stateMutex.Unlock()

	if manager.errorCount > 0 {
		manager.errorCount--
	}
}

// registerError updates the failure accounting and, when an alert is due,
// snapshots the payload and stamps the cooldown under the lock so concurrent
// recorders observe a consistent counter.
func (manager *Manager) registerError(message string, kind string) (alertPayload, bool) {
	manager.stateMutex.Lock()
	defer manager.stateMutex.Unlock()

	manager.errorCount++
	manager.logger.Error(
		errorRecordedMessageConstant,
		zap.String(logFieldAlertKindConstant, kind),
		zap.Int(logFieldErrorCountConstant, manager.errorCount),
	)

	if !manager.shouldSendAlertLocked() {
		return alertPayload{}, false
	}

	severity := severityMediumConstant
	if manager.errorCount >= highSeverityFailureCountConstant {
		severity = severityHighConstant
	}

	payload := alertPayload{
		Timestamp:  manager.clock().UTC().Format(timestampLayoutConstant),
		Service:    serviceNameConstant,
		AlertType:  kind,
		Message:    message,
		ErrorCount: manager.errorCount,
		Severity:   severity,
	}

	manager.errorCount = 0
	manager.lastAlertTime = manager.clock()

	return payload, true
}

func (manager *Manager) shouldSendAlertLocked() bool {
	if len(manager.configuration.WebhookURL) == 0 {
		return false
	}

	if !manager.lastAlertTime.IsZero() {
		elapsedSinceLastAlert := manager.clock().Sub(manager.lastAlertTime)
		if elapsedSinceLastAlert < manager.configuration.Cooldown {
			return false
		}
	}

	return manager.errorCount >= manager.configuration.Threshold
}

func (manager *Manager) deliverAlert(payload alertPayload, kind string) {
	encodedPayload, encodeError := json.Marshal(payload)
	if encodeError != nil {
		manager.logger.Warn(alertPayloadEncodingFailedMessage, zap.Error(encodeError))
		return
	}

	response, postError := manager.httpClient.Post(
		manager.configuration.WebhookURL,
		contentTypeJSONConstant,
		bytes.NewReader(encodedPayload),
	)
	if postError != nil {
		manager.logger.Warn(alertDeliveryFailedMessage, zap.Error(postError))
		return
	}
	defer func() { _ = response.Body.Close() }()

	manager.logger.Info(
		alertSentMessageConstant,
		zap.Int(logFieldWebhookStatusConstant, response.StatusCode),
		zap.String(logFieldAlertKindConstant, kind),
	)
}
