// Package mail abstracts outbound email delivery.
//
// Callers depend on the Mail interface and Message payload; the SMTP client
// in this package is the concrete transport, and other providers can slot in
// behind the same interface.
package mail
