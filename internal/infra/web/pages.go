// File: internal/infra/web/pages.go
package web

import "net/http"

// Static landing pages for browser redirects out of the hosted payment and
// onboarding flows. State never changes here; the webhook is the only writer.

const successPage = `<!DOCTYPE html>
<html>
<head><title>Payment Successful</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
<h1>&#10004; Payment Successful</h1>
<p>Your membership is active. Check Discord for your new role, then close this tab.</p>
</body>
</html>`

const cancelPage = `<!DOCTYPE html>
<html>
<head><title>Payment Cancelled</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
<h1>Payment Cancelled</h1>
<p>No charge was made. You can return to Discord and try again anytime.</p>
</body>
</html>`

const onboardDonePage = `<!DOCTYPE html>
<html>
<head><title>Onboarding Complete</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
<h1>&#10004; Onboarding Complete</h1>
<p>Your community can now accept payments. You can close this tab.</p>
</body>
</html>`

const onboardPendingPage = `<!DOCTYPE html>
<html>
<head><title>Onboarding In Progress</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
<h1>Onboarding In Progress</h1>
<p>Your account details are still under review. Charges will be enabled once verification finishes.</p>
</body>
</html>`

func pageHandler(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
	}
}
