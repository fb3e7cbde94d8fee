/*
Package accountsdk is a Go client for the accountd HTTP API.

# SDKClient vs Session

SDKClient covers the public operations: registration, login, activation and
credential checks. A successful login returns a Session, which presents the
issued credential on every call that needs one.

	client := accountsdk.NewSDKClient("http://localhost:8080")

	account, err := client.NewAccount(ctx, accountsdk.NewAccountRequest{
		Email:    "alice@example.com",
		Password: "s3cret",
	})

	session, err := client.Login(ctx, accountsdk.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret",
	})

	me, err := session.Me(ctx)
	err = session.Logout(ctx)

# Errors

Every failure reported by the service arrives as an *Error carrying the
envelope code and message. Use IsCode to branch on a particular code:

	if accountsdk.IsCode(err, accountsdk.CodeAccountNotActive) {
		// ask the user to check their inbox
	}
*/
package accountsdk
