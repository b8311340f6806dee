// Package idp adapts identity providers to the small contract the wallet
// client needs: sign up, confirm, authenticate, read the current session,
// refresh it, and sign out.
//
// # Providers
//
//   - [Wrap] turns a callback-style SDK ([CallbackProvider]) into a blocking,
//     context-aware [Provider] whose calls resolve exactly once.
//   - [MemoryProvider] is a self-contained provider for demos and tests.
//   - [CognitoProvider] talks to an Amazon Cognito user pool through the AWS SDK
//     (aws-sdk-go-v2 cognitoidentityprovider).
//
// # What this package must NOT do
//
//   - Import goWallet (the root package depends on this one).
//   - Attach tokens to backend requests or tear down client state.
package idp
