// Package alerting delivers webhook notifications for repeated coordinator
// failures. The manager owns its own thresholding and cooldown so transient
// failures never spam the webhook; recoveries gradually drain the error
// counter instead of resetting it outright.
package alerting
