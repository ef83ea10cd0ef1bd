// Package riskplan holds the shared building blocks of the rplan tool: the price universe read
// from the market-data file, the error taxonomy every engine reports, and the value types used
// to display results.
//
// The quantitative work lives in three sub packages that only depend on this one and on
// package date:
//   - risk: returns, volatility, value-at-risk, Sharpe ratio, rolling volatility, correlation
//     and the annualised inputs of the optimiser.
//   - portfolio: long-only mean-variance optimisation and efficient frontier.
//   - retirement: Monte Carlo projection of a retirement plan and the search for the
//     contribution that reaches a target success probability.
//
// Every computation is a pure function of immutable inputs: nothing is persisted between two
// invocations.
package riskplan
