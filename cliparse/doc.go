// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration loading and command-line overrides.

# Configuration

Load returns a Config built in layers, later layers winning:

 1. Defaults()
 2. optional YAML file (--config)
 3. .env in the working directory
 4. BALLOTDESK_* environment variables
 5. command-line flags (BindFlags + ApplyFlags)

	cfg, err := cliparse.Load(configFile)
	cliparse.ApplyFlags(cmd.Flags(), &cfg)

# Server Settings

  - Port (BALLOTDESK_PORT, -p): listen port (default: 3318)
  - DatabaseURL (BALLOTDESK_DATABASE_URL, -d)
  - DatabaseType (BALLOTDESK_DATABASE_TYPE, -t): sqlite or postgres
  - TokenSecret (BALLOTDESK_TOKEN_SECRET): JWT signing secret (required)
  - ImageStore (BALLOTDESK_IMAGE_STORE): disk or s3
  - CORSOrigins (BALLOTDESK_CORS_ORIGINS, --cors-origin): allowed origins, any when empty
  - EmulateCreateQuirk: answer creates with 400 while still creating

# Editor Settings

  - APIURL (BALLOTDESK_API_URL, --api)
  - Token / TokenFile: session token, inline or stored
  - Workflow: admin (eager sync, 2 candidates minimum) or superadmin
    (deferred save, 1 candidate minimum)
  - AmbiguousCreate: accept or strict
  - FetchTimeout: timeout for election and results fetches (default: 15s)

# Validation

ValidateServer and ValidateClient report the first missing or invalid
setting for their role.
*/
package cliparse
