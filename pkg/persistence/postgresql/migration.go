package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				category VARCHAR(50) NOT NULL CHECK (category IN ('compliance', 'quality', 'safety', 'training', 'general')),
				is_template BOOLEAN NOT NULL DEFAULT FALSE,
				trigger_entity_type VARCHAR(50) NOT NULL,
				trigger_event_kind VARCHAR(50) NOT NULL,
				conditions JSONB NOT NULL DEFAULT '{}',
				actions JSONB NOT NULL DEFAULT '[]',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'active', 'paused', 'archived')),
				execution_count BIGINT NOT NULL DEFAULT 0,
				last_executed_at TIMESTAMP WITH TIME ZONE,
				created_by VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_trigger ON workflows(trigger_entity_type, trigger_event_kind);
			CREATE INDEX idx_workflows_category ON workflows(category);
		`,
		2: `
			CREATE TABLE execution_logs (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL,
				workflow_name VARCHAR(255) NOT NULL,
				triggered_by VARCHAR(255) NOT NULL,
				trigger_entity_id VARCHAR(255) NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'completed', 'failed')),
				action_results JSONB NOT NULL DEFAULT '[]',
				error TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_execution_logs_workflow_id ON execution_logs(workflow_id);
			CREATE INDEX idx_execution_logs_status ON execution_logs(status);
			CREATE INDEX idx_execution_logs_started_at ON execution_logs(started_at DESC);
		`,
	}
}
