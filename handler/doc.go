// Package handler contains the HTTP handlers of the webhook server: the
// Qualpay webhook receiver and a health endpoint. All business logic lives
// in the checkout and qualpay packages; handlers only translate HTTP.
package handler
