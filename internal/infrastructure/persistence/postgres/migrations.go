// Package postgres implements the PostgreSQL persistence layer for QuestBoard.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create profiles table
-- Version: 001

CREATE TABLE IF NOT EXISTS profiles (
    id VARCHAR(64) PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL,
    branch VARCHAR(50) NOT NULL DEFAULT '',
    year SMALLINT NOT NULL,
    section VARCHAR(50) NOT NULL DEFAULT '',
    visibility VARCHAR(10) NOT NULL DEFAULT 'public',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_visibility CHECK (visibility IN ('public', 'private')),
    CONSTRAINT valid_year CHECK (year BETWEEN 1 AND 4)
);

-- The scoring pass reads the public population in one sweep.
CREATE INDEX IF NOT EXISTS idx_profiles_visibility ON profiles(visibility) WHERE visibility = 'public';
CREATE INDEX IF NOT EXISTS idx_profiles_branch_year ON profiles(branch, year);
`

const migration001Down = `
DROP TABLE IF EXISTS profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE GOALS AND METRICS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create goals and metrics tables
-- Version: 002

CREATE TABLE IF NOT EXISTS goals (
    id VARCHAR(64) PRIMARY KEY,
    profile_id VARCHAR(64) NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    title VARCHAR(200) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    progress SMALLINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('active', 'paused', 'completed', 'cancelled', 'archived')),
    CONSTRAINT valid_progress CHECK (progress BETWEEN 0 AND 100)
);

CREATE INDEX IF NOT EXISTS idx_goals_profile_id ON goals(profile_id);
CREATE INDEX IF NOT EXISTS idx_goals_status ON goals(status);

CREATE TABLE IF NOT EXISTS metrics (
    id VARCHAR(64) NOT NULL,
    goal_id VARCHAR(64) NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
    name VARCHAR(100) NOT NULL,
    value DOUBLE PRECISION NOT NULL DEFAULT 0,
    target DOUBLE PRECISION,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (goal_id, id),
    CONSTRAINT non_negative_value CHECK (value >= 0)
);

CREATE INDEX IF NOT EXISTS idx_metrics_goal_id ON metrics(goal_id);
`

const migration002Down = `
DROP TABLE IF EXISTS metrics;
DROP TABLE IF EXISTS goals;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE POSTS AND ENGAGEMENT EDGES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create posts, like edges and follow edges
-- Version: 003

CREATE TABLE IF NOT EXISTS posts (
    id VARCHAR(64) PRIMARY KEY,
    profile_id VARCHAR(64) NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    is_published BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_posts_profile_id ON posts(profile_id);
CREATE INDEX IF NOT EXISTS idx_posts_published ON posts(profile_id) WHERE is_published;

-- A like is a keyed edge: at most one per (liker, target_type, target).
CREATE TABLE IF NOT EXISTS like_edges (
    liker_id VARCHAR(64) NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    target_type VARCHAR(10) NOT NULL,
    target_id VARCHAR(64) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (liker_id, target_type, target_id),
    CONSTRAINT valid_target_type CHECK (target_type IN ('post', 'profile'))
);

CREATE INDEX IF NOT EXISTS idx_like_edges_target ON like_edges(target_type, target_id);

-- A follow is a keyed edge: at most one per (follower, followed), no self-edges.
CREATE TABLE IF NOT EXISTS follow_edges (
    follower_id VARCHAR(64) NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    followed_id VARCHAR(64) NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (follower_id, followed_id),
    CONSTRAINT no_self_follow CHECK (follower_id != followed_id)
);

CREATE INDEX IF NOT EXISTS idx_follow_edges_followed ON follow_edges(followed_id);
`

const migration003Down = `
DROP TABLE IF EXISTS follow_edges;
DROP TABLE IF EXISTS like_edges;
DROP TABLE IF EXISTS posts;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE SCORE RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create score record store
-- Version: 004

-- One row per profile per pass. The store holds exactly one pass at a time:
-- the write path replaces the full set in a single transaction, so readers
-- never see ranks from two different passes mixed together.
CREATE TABLE IF NOT EXISTS score_records (
    profile_id VARCHAR(64) PRIMARY KEY,
    branch VARCHAR(50) NOT NULL DEFAULT '',
    year SMALLINT NOT NULL,
    section VARCHAR(50) NOT NULL DEFAULT '',
    goal_score INTEGER NOT NULL DEFAULT 0,
    post_score INTEGER NOT NULL DEFAULT 0,
    metric_score INTEGER NOT NULL DEFAULT 0,
    engagement_score INTEGER NOT NULL DEFAULT 0,
    total_score INTEGER NOT NULL DEFAULT 0,
    normalized_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    rank INTEGER NOT NULL,
    pass_id VARCHAR(64) NOT NULL,
    computed_at TIMESTAMP WITH TIME ZONE NOT NULL,

    CONSTRAINT valid_rank CHECK (rank >= 1),
    CONSTRAINT valid_normalized CHECK (normalized_score >= 0 AND normalized_score <= 100)
);

CREATE INDEX IF NOT EXISTS idx_score_records_rank ON score_records(rank);
CREATE INDEX IF NOT EXISTS idx_score_records_computed_at ON score_records(computed_at);
`

const migration004Down = `
DROP TABLE IF EXISTS score_records;
`
